package store

import (
	"context"
	"sort"
	"sync"

	reqctx "custos/pkg/requestcontext"
)

// Memory is an in-memory store with the same append-only contract as
// Postgres. It backs unit tests and local development without a database.
type Memory struct {
	mu sync.Mutex

	users             []User
	userData          []UserData
	challenges        []VerificationChallenge
	emails            []Email
	parentPermissions []ParentPermission
	passwordResets    []PasswordReset
	passwords         []Password
	apiKeys           []APIKey

	nextID int64
}

func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

// RunInTx runs fn directly. The in-memory store offers per-statement
// atomicity only; rollback semantics are exercised against Postgres.
func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *Memory) allocID() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *Memory) AddUser(ctx context.Context) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := User{UserID: m.allocID(), CreationTime: reqctx.NowMillis(ctx)}
	m.users = append(m.users, u)
	return u, nil
}

func (m *Memory) GetUserByID(ctx context.Context, userID int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].UserID == userID {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (m *Memory) QueryUsers(ctx context.Context, f UserFilter) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		if !inInt64(f.UserID, u.UserID) || !inRange(u.CreationTime, f.MinCreationTime, f.MaxCreationTime) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *Memory) AddUserData(ctx context.Context, creatorUserID int64, name string) (UserData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ud := UserData{
		UserDataID:    m.allocID(),
		CreationTime:  reqctx.NowMillis(ctx),
		CreatorUserID: creatorUserID,
		Name:          name,
	}
	m.userData = append(m.userData, ud)
	return ud, nil
}

func (m *Memory) GetUserDataByUserID(ctx context.Context, userID int64) (*UserData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *UserData
	for i := range m.userData {
		if m.userData[i].CreatorUserID == userID {
			ud := m.userData[i]
			found = &ud
		}
	}
	return found, nil
}

func (m *Memory) QueryUserData(ctx context.Context, f UserDataFilter) ([]UserData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[int64]int64{}
	for _, ud := range m.userData {
		if ud.UserDataID > latest[ud.CreatorUserID] {
			latest[ud.CreatorUserID] = ud.UserDataID
		}
	}
	var out []UserData
	for _, ud := range m.userData {
		if f.OnlyRecent && latest[ud.CreatorUserID] != ud.UserDataID {
			continue
		}
		if !inInt64(f.UserDataID, ud.UserDataID) ||
			!inRange(ud.CreationTime, f.MinCreationTime, f.MaxCreationTime) ||
			!inInt64(f.CreatorUserID, ud.CreatorUserID) ||
			!inString(f.Name, ud.Name) {
			continue
		}
		out = append(out, ud)
	}
	return out, nil
}

func (m *Memory) AddChallenge(ctx context.Context, keyHash, email string, creatorUserID int64, toParent bool) (VerificationChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vc := VerificationChallenge{
		KeyHash:       keyHash,
		CreationTime:  reqctx.NowMillis(ctx),
		CreatorUserID: creatorUserID,
		ToParent:      toParent,
		Email:         email,
	}
	m.challenges = append(m.challenges, vc)
	return vc, nil
}

func (m *Memory) GetChallengeByKeyHash(ctx context.Context, keyHash string) (*VerificationChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.challengeByHash(keyHash), nil
}

func (m *Memory) challengeByHash(keyHash string) *VerificationChallenge {
	for i := range m.challenges {
		if m.challenges[i].KeyHash == keyHash {
			vc := m.challenges[i]
			return &vc
		}
	}
	return nil
}

func (m *Memory) LatestChallengeTimeByCreator(ctx context.Context, creatorUserID int64) (*int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var max *int64
	for _, vc := range m.challenges {
		if vc.CreatorUserID != creatorUserID {
			continue
		}
		if max == nil || vc.CreationTime > *max {
			t := vc.CreationTime
			max = &t
		}
	}
	return max, nil
}

func (m *Memory) QueryChallenges(ctx context.Context, f ChallengeFilter) ([]VerificationChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []VerificationChallenge
	for _, vc := range m.challenges {
		if !inRange(vc.CreationTime, f.MinCreationTime, f.MaxCreationTime) ||
			!inInt64(f.CreatorUserID, vc.CreatorUserID) ||
			!inString(f.Email, vc.Email) {
			continue
		}
		if f.ToParent != nil && vc.ToParent != *f.ToParent {
			continue
		}
		out = append(out, vc)
	}
	sortBy(out, func(a, b VerificationChallenge) bool { return a.KeyHash < b.KeyHash })
	return out, nil
}

func (m *Memory) AddEmail(ctx context.Context, creatorUserID int64, challengeKeyHash string) (Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := Email{
		EmailID:          m.allocID(),
		CreationTime:     reqctx.NowMillis(ctx),
		CreatorUserID:    creatorUserID,
		ChallengeKeyHash: challengeKeyHash,
	}
	m.emails = append(m.emails, e)
	return e, nil
}

func (m *Memory) GetEmailByKeyHash(ctx context.Context, challengeKeyHash string) (*Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.emails {
		if m.emails[i].ChallengeKeyHash == challengeKeyHash {
			e := m.emails[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (m *Memory) GetEmailByAddress(ctx context.Context, address string) (*Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *Email
	for _, e := range m.latestEmails() {
		vc := m.challengeByHash(e.ChallengeKeyHash)
		if vc == nil || vc.Email != address {
			continue
		}
		if found == nil || e.EmailID > found.EmailID {
			e := e
			found = &e
		}
	}
	return found, nil
}

func (m *Memory) GetEmailByUserID(ctx context.Context, userID int64) (*Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.latestEmails() {
		if e.CreatorUserID == userID {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

func (m *Memory) latestEmails() []Email {
	latest := map[int64]Email{}
	for _, e := range m.emails {
		if cur, ok := latest[e.CreatorUserID]; !ok || e.EmailID > cur.EmailID {
			latest[e.CreatorUserID] = e
		}
	}
	out := make([]Email, 0, len(latest))
	for _, e := range latest {
		out = append(out, e)
	}
	return out
}

func (m *Memory) QueryEmails(ctx context.Context, f EmailFilter) ([]Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[int64]int64{}
	for _, e := range m.emails {
		if e.EmailID > latest[e.CreatorUserID] {
			latest[e.CreatorUserID] = e.EmailID
		}
	}
	var out []Email
	for _, e := range m.emails {
		if f.OnlyRecent && latest[e.CreatorUserID] != e.EmailID {
			continue
		}
		if !inInt64(f.EmailID, e.EmailID) ||
			!inRange(e.CreationTime, f.MinCreationTime, f.MaxCreationTime) ||
			!inInt64(f.CreatorUserID, e.CreatorUserID) {
			continue
		}
		if len(f.Email) > 0 {
			vc := m.challengeByHash(e.ChallengeKeyHash)
			if vc == nil || !inString(f.Email, vc.Email) {
				continue
			}
		}
		out = append(out, e)
	}
	sortBy(out, func(a, b Email) bool { return a.EmailID < b.EmailID })
	return out, nil
}

func (m *Memory) AddParentPermission(ctx context.Context, userID int64, challengeKeyHash *string) (ParentPermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pp := ParentPermission{
		ParentPermissionID: m.allocID(),
		CreationTime:       reqctx.NowMillis(ctx),
		UserID:             userID,
		ChallengeKeyHash:   challengeKeyHash,
	}
	m.parentPermissions = append(m.parentPermissions, pp)
	return pp, nil
}

func (m *Memory) GetParentPermissionByUserID(ctx context.Context, userID int64) (*ParentPermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *ParentPermission
	for i := range m.parentPermissions {
		if m.parentPermissions[i].UserID == userID {
			pp := m.parentPermissions[i]
			if found == nil || pp.ParentPermissionID > found.ParentPermissionID {
				found = &pp
			}
		}
	}
	return found, nil
}

func (m *Memory) GetParentPermissionByKeyHash(ctx context.Context, challengeKeyHash string) (*ParentPermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.parentPermissions {
		h := m.parentPermissions[i].ChallengeKeyHash
		if h != nil && *h == challengeKeyHash {
			pp := m.parentPermissions[i]
			return &pp, nil
		}
	}
	return nil, nil
}

func (m *Memory) QueryParentPermissions(ctx context.Context, f ParentPermissionFilter) ([]ParentPermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[int64]int64{}
	for _, pp := range m.parentPermissions {
		if pp.ParentPermissionID > latest[pp.UserID] {
			latest[pp.UserID] = pp.ParentPermissionID
		}
	}
	var out []ParentPermission
	for _, pp := range m.parentPermissions {
		if f.OnlyRecent && latest[pp.UserID] != pp.ParentPermissionID {
			continue
		}
		if !inInt64(f.ParentPermissionID, pp.ParentPermissionID) ||
			!inRange(pp.CreationTime, f.MinCreationTime, f.MaxCreationTime) ||
			!inInt64(f.UserID, pp.UserID) {
			continue
		}
		if f.FromChallenge != nil && (pp.ChallengeKeyHash != nil) != *f.FromChallenge {
			continue
		}
		if len(f.ParentEmail) > 0 {
			if pp.ChallengeKeyHash == nil {
				continue
			}
			vc := m.challengeByHash(*pp.ChallengeKeyHash)
			if vc == nil || !inString(f.ParentEmail, vc.Email) {
				continue
			}
		}
		out = append(out, pp)
	}
	sortBy(out, func(a, b ParentPermission) bool { return a.ParentPermissionID < b.ParentPermissionID })
	return out, nil
}

func (m *Memory) AddPasswordReset(ctx context.Context, keyHash string, creatorUserID int64) (PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr := PasswordReset{
		KeyHash:       keyHash,
		CreationTime:  reqctx.NowMillis(ctx),
		CreatorUserID: creatorUserID,
	}
	m.passwordResets = append(m.passwordResets, pr)
	return pr, nil
}

func (m *Memory) GetPasswordResetByKeyHash(ctx context.Context, keyHash string) (*PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.passwordResets {
		if m.passwordResets[i].KeyHash == keyHash {
			pr := m.passwordResets[i]
			return &pr, nil
		}
	}
	return nil, nil
}

func (m *Memory) AddPassword(ctx context.Context, creatorUserID int64, passwordHash string, resetKeyHash *string) (Password, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := Password{
		PasswordID:    m.allocID(),
		CreationTime:  reqctx.NowMillis(ctx),
		CreatorUserID: creatorUserID,
		PasswordHash:  passwordHash,
		ResetKeyHash:  resetKeyHash,
	}
	m.passwords = append(m.passwords, p)
	return p, nil
}

func (m *Memory) GetPasswordByUserID(ctx context.Context, userID int64) (*Password, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *Password
	for i := range m.passwords {
		if m.passwords[i].CreatorUserID == userID {
			p := m.passwords[i]
			if found == nil || p.PasswordID > found.PasswordID {
				found = &p
			}
		}
	}
	return found, nil
}

func (m *Memory) PasswordExistsForResetHash(ctx context.Context, resetKeyHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.passwords {
		if p.ResetKeyHash != nil && *p.ResetKeyHash == resetKeyHash {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) QueryPasswords(ctx context.Context, f PasswordFilter) ([]Password, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[int64]int64{}
	for _, p := range m.passwords {
		if p.PasswordID > latest[p.CreatorUserID] {
			latest[p.CreatorUserID] = p.PasswordID
		}
	}
	var out []Password
	for _, p := range m.passwords {
		if f.OnlyRecent && latest[p.CreatorUserID] != p.PasswordID {
			continue
		}
		if !inInt64(f.PasswordID, p.PasswordID) ||
			!inRange(p.CreationTime, f.MinCreationTime, f.MaxCreationTime) ||
			!inInt64(f.CreatorUserID, p.CreatorUserID) {
			continue
		}
		if f.FromReset != nil && (p.ResetKeyHash != nil) != *f.FromReset {
			continue
		}
		out = append(out, p)
	}
	sortBy(out, func(a, b Password) bool { return a.PasswordID < b.PasswordID })
	return out, nil
}

func (m *Memory) AddAPIKey(ctx context.Context, creatorUserID int64, keyHash string, kind APIKeyKind, duration int64) (APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := APIKey{
		APIKeyID:      m.allocID(),
		CreationTime:  reqctx.NowMillis(ctx),
		CreatorUserID: creatorUserID,
		KeyHash:       keyHash,
		Kind:          kind,
		Duration:      duration,
	}
	m.apiKeys = append(m.apiKeys, k)
	return k, nil
}

func (m *Memory) GetAPIKeyByKeyHash(ctx context.Context, keyHash string) (*APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *APIKey
	for i := range m.apiKeys {
		if m.apiKeys[i].KeyHash == keyHash {
			k := m.apiKeys[i]
			if found == nil || k.APIKeyID > found.APIKeyID {
				found = &k
			}
		}
	}
	return found, nil
}

func (m *Memory) QueryAPIKeys(ctx context.Context, f APIKeyFilter) ([]APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[string]int64{}
	for _, k := range m.apiKeys {
		if k.APIKeyID > latest[k.KeyHash] {
			latest[k.KeyHash] = k.APIKeyID
		}
	}
	var out []APIKey
	for _, k := range m.apiKeys {
		if f.OnlyRecent && latest[k.KeyHash] != k.APIKeyID {
			continue
		}
		if !inInt64(f.APIKeyID, k.APIKeyID) ||
			!inRange(k.CreationTime, f.MinCreationTime, f.MaxCreationTime) ||
			!inInt64(f.CreatorUserID, k.CreatorUserID) ||
			!inRange(k.Duration, f.MinDuration, f.MaxDuration) {
			continue
		}
		if f.Kind != nil && k.Kind != *f.Kind {
			continue
		}
		out = append(out, k)
	}
	sortBy(out, func(a, b APIKey) bool { return a.APIKeyID < b.APIKeyID })
	return out, nil
}

// filter helpers shared by the memory queries

func inInt64(set []int64, v int64) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func inString(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func inRange(v int64, min, max *int64) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}

func sortBy[T any](s []T, less func(a, b T) bool) {
	sort.Slice(s, func(i, j int) bool { return less(s[i], s[j]) })
}
