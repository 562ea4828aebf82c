package auth

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
)

const gravatarBase = "https://www.gravatar.com/avatar/"

// PlaceholderAvatar is the default avatar URL for an email: the Gravatar
// address keyed by the MD5 of the normalized email. No network call is made.
func PlaceholderAvatar(email string) string {
	sum := md5.Sum([]byte(common.NormalizeEmail(email)))
	return gravatarBase + hex.EncodeToString(sum[:])
}
