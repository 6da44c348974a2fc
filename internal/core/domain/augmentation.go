package domain

type Augmentation string

const (
	AugmentationNone               Augmentation = "none"
	AugmentationFollowUp           Augmentation = "follow_up"
	AugmentationComprehensionCheck Augmentation = "comprehension_check"
)

// DecideAugmentation picks the augmentation for the turn that produced the
// given counters. Counters are the post-turn values: turnCount already
// incremented, recentAnswers already including the new raw answer. The two
// branches are mutually exclusive and the comprehension check wins.
func DecideAugmentation(turnCount, recentAnswers int) Augmentation {
	if recentAnswers >= 3 && recentAnswers%3 == 0 {
		return AugmentationComprehensionCheck
	}
	if turnCount > 0 && turnCount%3 == 0 {
		return AugmentationFollowUp
	}
	return AugmentationNone
}
