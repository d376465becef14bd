// Package feature implements deterministic percentage-based feature
// rollout.
//
// A subject is assigned to a bucket in [0,99] by hashing the subject id
// together with the flag name, so the same subject always lands in the
// same bucket for a given flag without any stored per-subject state. A
// flag with rollout percentage p is visible to exactly the subjects whose
// bucket is below p, which makes rollout expansion monotone: raising p
// only ever adds subjects, it never flips an enabled subject back off.
//
// Evaluation fails closed. An unknown flag, an unreachable store, or a
// malformed record all evaluate to disabled, because a flag infrastructure
// outage must never expose an unfinished feature to all traffic.
//
//	svc := feature.NewService(feature.NewPostgresStore(pool))
//	if svc.IsEnabled(ctx, userID, "glucose_predictions") {
//		// render predictions
//	}
//
// Administration goes through Create and Update, which validate the
// rollout percentage and reject anything outside [0,100]. For hot
// evaluation paths the store can be wrapped in a Redis read-through cache
// with NewCachedStore.
package feature
