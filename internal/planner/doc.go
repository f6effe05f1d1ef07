// Package planner asks the language model to turn a free-text goal into a
// fetch plan: a fetch mode and one to five URLs.
//
// The model's answer is validated strictly. Output that does not describe a
// valid plan is rejected with ErrInvalidPlan; it is never repaired or
// replaced with a default plan.
package planner
