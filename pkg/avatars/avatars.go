package avatars

import (
	"github.com/shishobooks/shelfkeep/pkg/models"
)

// Placeholder avatars, relative to the media directory.
const (
	MaleAvatar    = "images/avatars/male.png"
	FemaleAvatar  = "images/avatars/female.png"
	GenericAvatar = "images/avatars/default.png"
)

// DefaultAvatar picks the placeholder avatar assigned to new users who did not
// upload an image.
func DefaultAvatar(gender string) string {
	switch gender {
	case models.GenderMale:
		return MaleAvatar
	case models.GenderFemale:
		return FemaleAvatar
	default:
		return GenericAvatar
	}
}

// IsPlaceholder reports whether path is one of the built-in avatars.
func IsPlaceholder(path string) bool {
	return path == MaleAvatar || path == FemaleAvatar || path == GenericAvatar
}
