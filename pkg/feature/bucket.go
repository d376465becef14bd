package feature

import (
	"crypto/sha256"
	"encoding/binary"
)

// Bucket deterministically assigns a subject to a bucket in [0,99] for the
// given flag. The flag name is part of the hashed input, so buckets for
// different flags are statistically independent without any shared seed or
// stored assignment. The hash is deliberately unkeyed: every process must
// compute the same bucket without coordination.
func Bucket(subjectID, flagName string) int {
	sum := sha256.Sum256([]byte(subjectID + ":" + flagName))
	return int(binary.BigEndian.Uint32(sum[:4]) % 100)
}

// EstimateReach returns how many of totalSubjects fall inside the rollout
// percentage, rounded down.
func EstimateReach(totalSubjects, rolloutPercent int) int {
	return totalSubjects * rolloutPercent / 100
}
