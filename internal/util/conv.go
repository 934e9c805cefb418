package util

import (
	"strconv"
)

// OwnerKey is the persistence namespace for a user's game progress.
func OwnerKey(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}
