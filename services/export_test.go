package services

// SetSlugSuffix replaces the random slug suffix generator.
func SetSlugSuffix(s *MatchService, f func() string) {
	s.newSuffix = f
}
