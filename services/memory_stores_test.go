package services

import (
	"context"
	"sort"
	"sync"

	"sangam_server/models"
)

// In-memory store fakes honoring the conditional-write contracts of the
// Dynamo-backed implementations, so lifecycle tests exercise the same
// reconcile paths.

type memProfileStore struct {
	mu       sync.Mutex
	profiles map[string]models.Profile
}

func newMemProfileStore() *memProfileStore {
	return &memProfileStore{profiles: make(map[string]models.Profile)}
}

func (s *memProfileStore) put(profile models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile
}

func (s *memProfileStore) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, &models.NotFoundError{Resource: "profile", ID: userID}
	}
	return &profile, nil
}

func (s *memProfileStore) ListActiveProfiles(_ context.Context, excludeUserID string, filters models.SearchFilters, limit int32, startToken string) ([]models.Profile, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var page []models.Profile
	for _, id := range ids {
		if startToken != "" && id <= startToken {
			continue
		}
		profile := s.profiles[id]
		if !eligibleProfile(profile, excludeUserID, filters) {
			continue
		}
		page = append(page, profile)
		if int32(len(page)) >= limit {
			return page, id, nil
		}
	}
	return page, "", nil
}

func eligibleProfile(profile models.Profile, excludeUserID string, filters models.SearchFilters) bool {
	if profile.UserID == excludeUserID || !profile.IsActive || profile.VerificationStatus == models.VerificationRejected {
		return false
	}
	if filters.AgeMin > 0 && profile.Age < filters.AgeMin {
		return false
	}
	if filters.AgeMax > 0 && profile.Age > filters.AgeMax {
		return false
	}
	if filters.Gender != "" && profile.Gender != filters.Gender {
		return false
	}
	return true
}

type memMatchStore struct {
	mu   sync.Mutex
	rows map[string]models.Match
}

func newMemMatchStore() *memMatchStore {
	return &memMatchStore{rows: make(map[string]models.Match)}
}

func pairKey(a, b string) string { return a + "|" + b }

func (s *memMatchStore) seed(row models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[pairKey(row.UserID, row.MatchedUserID)] = row
}

func (s *memMatchStore) get(userID, matchedUserID string) (models.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[pairKey(userID, matchedUserID)]
	return row, ok
}

func (s *memMatchStore) GetMatch(_ context.Context, userID, matchedUserID string) (*models.Match, error) {
	row, ok := s.get(userID, matchedUserID)
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *memMatchStore) ListMatches(_ context.Context, userID string) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []models.Match
	for _, row := range s.rows {
		if row.UserID == userID {
			matches = append(matches, row)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].MatchedUserID < matches[j].MatchedUserID })
	return matches, nil
}

func (s *memMatchStore) PutMatchIfAbsent(_ context.Context, match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(match.UserID, match.MatchedUserID)
	if _, exists := s.rows[key]; exists {
		return &models.DuplicatePairError{Resource: "match", From: match.UserID, To: match.MatchedUserID}
	}
	s.rows[key] = *match
	return nil
}

func (s *memMatchStore) RefreshSuggestion(_ context.Context, match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(match.UserID, match.MatchedUserID)
	row, exists := s.rows[key]
	if !exists || (row.Status != models.MatchStatusSuggested && row.Status != models.MatchStatusPassed) {
		return ErrConditionFailed
	}
	row.CompatibilityScore = match.CompatibilityScore
	row.ScoreBreakdown = match.ScoreBreakdown
	row.Insights = match.Insights
	row.Status = models.MatchStatusSuggested
	row.PassedAt = ""
	row.UpdatedAt = match.UpdatedAt
	s.rows[key] = row
	return nil
}

func (s *memMatchStore) UpdateStatusIf(_ context.Context, userID, matchedUserID string, want []string, to string, passedAt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(userID, matchedUserID)
	row, exists := s.rows[key]
	if !exists {
		return ErrConditionFailed
	}
	allowed := false
	for _, status := range want {
		if row.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrConditionFailed
	}

	row.Status = to
	if to == models.MatchStatusPassed {
		row.PassedAt = passedAt
	} else {
		row.PassedAt = ""
	}
	row.UpdatedAt = nowRFC3339()
	s.rows[key] = row
	return nil
}

// PromotePairMutual checks both rows before touching either, mimicking the
// all-or-nothing transaction.
func (s *memMatchStore) PromotePairMutual(_ context.Context, userA, userB string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	promotable := func(status string) bool {
		return status == models.MatchStatusInterested || status == models.MatchStatusMutual
	}
	forward, forwardOK := s.rows[pairKey(userA, userB)]
	reverse, reverseOK := s.rows[pairKey(userB, userA)]
	if !forwardOK || !reverseOK || !promotable(forward.Status) || !promotable(reverse.Status) {
		return ErrConditionFailed
	}

	now := nowRFC3339()
	forward.Status = models.MatchStatusMutual
	forward.UpdatedAt = now
	reverse.Status = models.MatchStatusMutual
	reverse.UpdatedAt = now
	s.rows[pairKey(userA, userB)] = forward
	s.rows[pairKey(userB, userA)] = reverse
	return nil
}

type memInterestStore struct {
	mu   sync.Mutex
	rows map[string]models.Interest
}

func newMemInterestStore() *memInterestStore {
	return &memInterestStore{rows: make(map[string]models.Interest)}
}

func (s *memInterestStore) GetInterest(_ context.Context, fromUserID, toUserID string) (*models.Interest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[pairKey(fromUserID, toUserID)]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *memInterestStore) GetInterestByID(_ context.Context, interestID string) (*models.Interest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.InterestID == interestID {
			return &row, nil
		}
	}
	return nil, &models.NotFoundError{Resource: "interest", ID: interestID}
}

func (s *memInterestStore) ListSent(_ context.Context, fromUserID string) ([]models.Interest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var interests []models.Interest
	for _, row := range s.rows {
		if row.FromUserID == fromUserID {
			interests = append(interests, row)
		}
	}
	sort.Slice(interests, func(i, j int) bool { return interests[i].ToUserID < interests[j].ToUserID })
	return interests, nil
}

func (s *memInterestStore) ListReceived(_ context.Context, toUserID string) ([]models.Interest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var interests []models.Interest
	for _, row := range s.rows {
		if row.ToUserID == toUserID {
			interests = append(interests, row)
		}
	}
	sort.Slice(interests, func(i, j int) bool { return interests[i].FromUserID < interests[j].FromUserID })
	return interests, nil
}

func (s *memInterestStore) PutInterestIfAbsent(_ context.Context, interest *models.Interest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(interest.FromUserID, interest.ToUserID)
	if _, exists := s.rows[key]; exists {
		return &models.DuplicatePairError{Resource: "interest", From: interest.FromUserID, To: interest.ToUserID}
	}
	s.rows[key] = *interest
	return nil
}

func (s *memInterestStore) UpdateStatusIf(_ context.Context, fromUserID, toUserID, want, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(fromUserID, toUserID)
	row, exists := s.rows[key]
	if !exists || row.Status != want {
		return ErrConditionFailed
	}
	row.Status = to
	row.UpdatedAt = nowRFC3339()
	s.rows[key] = row
	return nil
}

func (s *memInterestStore) ReopenDeclined(_ context.Context, fromUserID, toUserID, message string) (*models.Interest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(fromUserID, toUserID)
	row, exists := s.rows[key]
	if !exists || row.Status != models.InterestStatusDeclined {
		return nil, ErrConditionFailed
	}
	row.Status = models.InterestStatusPending
	row.Message = message
	row.UpdatedAt = nowRFC3339()
	s.rows[key] = row
	return &row, nil
}
