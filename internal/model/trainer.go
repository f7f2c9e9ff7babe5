package model

import (
	"math/rand"
	"time"

	"github.com/sajari/regression"

	"aqipipe/internal/types"
)

// splitSeed fixes the train/test permutation for reproducible evaluation.
// Not security sensitive.
const splitSeed = 42

// testFraction is the held-out share of the labeled data.
const testFraction = 0.2

// Train fits a linear regressor mapping the nine-feature vector to the AQI
// label over the given historical records and evaluates it on a held-out
// 80/20 split.
//
// Records without a label are skipped. An empty input (or one with no
// labeled rows at all) fails with a training_insufficient_data AppError.
// Data the solver cannot fit -- too few observations for nine variables, or
// fewer than two distinct label values -- does NOT fail: Train degrades to an
// intercept-only artifact predicting the mean label and marks it Degenerate
// so callers can surface a warning.
func Train(records []types.FeatureRecord) (*Artifact, error) {
	if len(records) == 0 {
		return nil, types.NewAppError(types.ErrCodeInsufficientData, "no historical records to train on", nil)
	}

	var labeled []types.FeatureRecord
	for _, rec := range records {
		if rec.AQI != nil {
			labeled = append(labeled, rec)
		}
	}
	if len(labeled) == 0 {
		return nil, types.NewAppError(types.ErrCodeInsufficientData, "no labeled records to train on", nil)
	}

	trainSet, testSet := split(labeled)
	names := types.FeatureNames()

	artifact := &Artifact{
		FeatureNames: names,
		TrainedAt:    time.Now().UTC(),
	}

	weights, bias, ok := fit(trainSet, names)
	if !ok {
		weights, bias = fallbackFit(trainSet)
		artifact.Degenerate = true
	}
	artifact.Weights = weights
	artifact.Bias = bias

	// Evaluate on the held-out split; with too little data for a split,
	// fall back to the training rows so metrics are always defined.
	evalSet := testSet
	if len(evalSet) == 0 {
		evalSet = trainSet
	}
	artifact.Metrics = evaluate(artifact, evalSet)

	return artifact, nil
}

// split partitions the labeled rows into train/test via a seeded permutation.
func split(labeled []types.FeatureRecord) (trainSet, testSet []types.FeatureRecord) {
	n := len(labeled)
	perm := rand.New(rand.NewSource(splitSeed)).Perm(n)

	testN := int(float64(n) * testFraction)
	for i, idx := range perm {
		if i < testN {
			testSet = append(testSet, labeled[idx])
		} else {
			trainSet = append(trainSet, labeled[idx])
		}
	}
	return trainSet, testSet
}

// fit runs the least-squares solver. ok is false when the data cannot
// support a nine-variable fit (the solver needs more observations than
// variables, and at least two distinct label values to be meaningful).
func fit(trainSet []types.FeatureRecord, names []string) (weights []float64, bias float64, ok bool) {
	if len(trainSet) <= len(names)+1 || distinctLabels(trainSet) < 2 {
		return nil, 0, false
	}

	var r regression.Regression
	r.SetObserved("aqi")
	for i, name := range names {
		r.SetVar(i, name)
	}
	for _, rec := range trainSet {
		r.Train(regression.DataPoint(float64(*rec.AQI), rec.FeatureVector()))
	}
	if err := r.Run(); err != nil {
		return nil, 0, false
	}

	coeffs := r.GetCoeffs()
	if len(coeffs) != len(names)+1 {
		return nil, 0, false
	}
	return coeffs[1:], coeffs[0], true
}

// fallbackFit produces the intercept-only model: predict the mean label.
func fallbackFit(trainSet []types.FeatureRecord) (weights []float64, bias float64) {
	var sum float64
	for _, rec := range trainSet {
		sum += float64(*rec.AQI)
	}
	return make([]float64, len(types.FeatureNames())), sum / float64(len(trainSet))
}

// distinctLabels counts distinct AQI values in the set.
func distinctLabels(set []types.FeatureRecord) int {
	seen := make(map[int]struct{}, len(set))
	for _, rec := range set {
		seen[*rec.AQI] = struct{}{}
	}
	return len(seen)
}

// evaluate computes MSE and R2 of the artifact over the given labeled rows.
// When the labels carry no variance R2 is reported as 0.
func evaluate(a *Artifact, set []types.FeatureRecord) Metrics {
	var mean float64
	for _, rec := range set {
		mean += float64(*rec.AQI)
	}
	mean /= float64(len(set))

	var ssRes, ssTot float64
	for _, rec := range set {
		pred, _ := a.Predict(rec.FeatureVector())
		diff := float64(*rec.AQI) - pred
		ssRes += diff * diff

		dev := float64(*rec.AQI) - mean
		ssTot += dev * dev
	}

	m := Metrics{MSE: ssRes / float64(len(set))}
	if ssTot > 0 {
		m.R2 = 1 - ssRes/ssTot
	}
	return m
}
