package domain

import "errors"

// Reason classifies why a recommendation request produced no suggestions.
// Every value maps to a normal "no good recommendation" business outcome.
type Reason string

const (
	// ReasonNoHistory means the user has no recorded history to profile.
	ReasonNoHistory Reason = "no_history"

	// ReasonNoCalorieData means no calorie budget exists for the requested date.
	ReasonNoCalorieData Reason = "no_calorie_data"

	// ReasonInsufficientCalories means the remaining budget is zero or negative.
	ReasonInsufficientCalories Reason = "insufficient_calories"

	// ReasonNoSuitableFood means scoring succeeded but every candidate was
	// filtered out by the calorie budget or prior consumption.
	ReasonNoSuitableFood Reason = "no_suitable_food"

	// ReasonNoTargetProfile means the target user is absent from the
	// neighbor pool.
	ReasonNoTargetProfile Reason = "no_target_profile"

	// ReasonNoNewActivities means no neighbor performed an activity the
	// target has not already done.
	ReasonNoNewActivities Reason = "no_new_activities"

	// ReasonGatewayTimeout means the external data source did not answer
	// within the configured deadline.
	ReasonGatewayTimeout Reason = "gateway_timeout"

	// ReasonGatewayError means the external data source failed. The caller
	// may retry; the engine does not retry internally.
	ReasonGatewayError Reason = "gateway_error"
)

var (
	// ErrEmptyCorpus is returned when a vectorizer fit is attempted on zero
	// documents. It indicates an upstream data problem (empty catalog or
	// empty neighbor pool) and never crosses the recommender boundary.
	ErrEmptyCorpus = errors.New("cannot fit vectorizer on empty corpus")

	// ErrNotFitted is returned when Transform is called before Fit.
	ErrNotFitted = errors.New("vectorizer has not been fitted")

	// ErrInvalidAnalyzer is returned when a vectorizer is configured without
	// an explicit analyzer mode.
	ErrInvalidAnalyzer = errors.New("analyzer mode must be set explicitly")

	// ErrGatewayUnavailable wraps failures of the external data source.
	ErrGatewayUnavailable = errors.New("data gateway unavailable")
)
