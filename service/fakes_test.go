package service

import (
	"context"
	"encoding/json"
	"time"

	"yayago/domain"

	"gorm.io/gorm"
)

// In-memory collaborators. The session repo round-trips through JSON so
// tests observe exactly what a real store would hand back, not shared
// pointers into service state.

type fakeSessionRepo struct {
	sessions  map[string]string
	saveCalls int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]string)}
}

func (r *fakeSessionRepo) SaveSession(_ context.Context, session *domain.WorkflowSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	r.sessions[session.PartnerUUID] = string(raw)
	r.saveCalls++
	return nil
}

func (r *fakeSessionRepo) GetSession(_ context.Context, partnerUUID string) (*domain.WorkflowSession, error) {
	raw, ok := r.sessions[partnerUUID]
	if !ok {
		return nil, nil
	}
	var session domain.WorkflowSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, err
	}
	if session.Evidence == nil {
		session.Evidence = make(map[domain.VerificationStep]string)
	}
	return &session, nil
}

func (r *fakeSessionRepo) DeleteSession(_ context.Context, partnerUUID string) error {
	delete(r.sessions, partnerUUID)
	return nil
}

type fakeChallenge struct {
	phone    string
	code     string
	attempts int
	resends  int
}

type fakeOTPRepo struct {
	challenges map[string]*fakeChallenge
	saveCalls  int
	checkCalls int
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{challenges: make(map[string]*fakeChallenge)}
}

func (r *fakeOTPRepo) SaveOTP(_ context.Context, partnerUUID, phone, code string, _ time.Duration) error {
	resends := 0
	if prev, ok := r.challenges[partnerUUID]; ok {
		resends = prev.resends + 1
	}
	r.challenges[partnerUUID] = &fakeChallenge{phone: phone, code: code, resends: resends}
	r.saveCalls++
	return nil
}

func (r *fakeOTPRepo) GetOTP(_ context.Context, partnerUUID string) (*domain.OtpChallenge, error) {
	ch, ok := r.challenges[partnerUUID]
	if !ok {
		return nil, nil
	}
	return &domain.OtpChallenge{PhoneNumber: ch.phone, Attempts: ch.attempts, Resends: ch.resends}, nil
}

func (r *fakeOTPRepo) CheckCode(_ context.Context, partnerUUID, code string) (bool, int, error) {
	r.checkCalls++
	ch, ok := r.challenges[partnerUUID]
	if !ok {
		return false, 0, nil
	}
	if ch.code != code {
		ch.attempts++
		return false, ch.attempts, nil
	}
	return true, ch.attempts, nil
}

func (r *fakeOTPRepo) DeleteOTP(_ context.Context, partnerUUID string) error {
	delete(r.challenges, partnerUUID)
	return nil
}

type fakeProfileRepo struct {
	profiles      map[string]*domain.PartnerProfile
	submissions   []*domain.VerificationSubmission
	createErr     error
	createCalls   int
	invalidations int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*domain.PartnerProfile)}
}

func (r *fakeProfileRepo) GetProfileByUUID(_ context.Context, uuid string) (*domain.PartnerProfile, error) {
	p, ok := r.profiles[uuid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) UpdateProfile(_ context.Context, profile *domain.PartnerProfile) error {
	cp := *profile
	r.profiles[profile.UUID] = &cp
	return nil
}

func (r *fakeProfileRepo) CreateSubmission(_ context.Context, sub *domain.VerificationSubmission) error {
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	r.submissions = append(r.submissions, sub)
	return nil
}

func (r *fakeProfileRepo) InvalidateCache(_ context.Context, _ string) error {
	r.invalidations++
	return nil
}

type fakeLockRepo struct {
	held map[string]bool
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{held: make(map[string]bool)}
}

func (r *fakeLockRepo) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	if r.held[key] {
		return false, nil
	}
	r.held[key] = true
	return true, nil
}

func (r *fakeLockRepo) Release(_ context.Context, key string) error {
	delete(r.held, key)
	return nil
}

type fakeSMSSender struct {
	calls    int
	fail     bool
	lastTo   string
	lastBody string
}

func (s *fakeSMSSender) Send(_ context.Context, to, body string) error {
	s.calls++
	s.lastTo = to
	s.lastBody = body
	if s.fail {
		return domain.NetworkFailureError(context.DeadlineExceeded)
	}
	return nil
}

type fakePayoutProvider struct {
	status       *domain.PayoutAccountStatus
	statusErr    error
	statusCalls  int
	link         string
	linkErr      error
	linkCalls    int
	secret       string
	sessionErr   error
	sessionCalls int
}

func (p *fakePayoutProvider) GetAccountStatus(_ context.Context, _ string) (*domain.PayoutAccountStatus, error) {
	p.statusCalls++
	if p.statusErr != nil {
		return nil, p.statusErr
	}
	cp := *p.status
	return &cp, nil
}

func (p *fakePayoutProvider) CreateOnboardingLink(_ context.Context, _, _, _ string) (string, error) {
	p.linkCalls++
	if p.linkErr != nil {
		return "", p.linkErr
	}
	return p.link, nil
}

func (p *fakePayoutProvider) CreateAccountSession(_ context.Context, _ string) (string, error) {
	p.sessionCalls++
	if p.sessionErr != nil {
		return "", p.sessionErr
	}
	return p.secret, nil
}

type fakePayoutStateRepo struct {
	sessions    map[string]string
	unavailable map[string]bool
	markCalls   int
	clearCalls  int
}

func newFakePayoutStateRepo() *fakePayoutStateRepo {
	return &fakePayoutStateRepo{
		sessions:    make(map[string]string),
		unavailable: make(map[string]bool),
	}
}

func (r *fakePayoutStateRepo) GetAccountSession(_ context.Context, orgUUID string) (string, error) {
	return r.sessions[orgUUID], nil
}

func (r *fakePayoutStateRepo) SaveAccountSession(_ context.Context, orgUUID, clientSecret string) error {
	r.sessions[orgUUID] = clientSecret
	return nil
}

func (r *fakePayoutStateRepo) DeleteAccountSession(_ context.Context, orgUUID string) error {
	delete(r.sessions, orgUUID)
	return nil
}

func (r *fakePayoutStateRepo) MarkCapabilityUnavailable(_ context.Context, orgUUID string) error {
	r.markCalls++
	r.unavailable[orgUUID] = true
	return nil
}

func (r *fakePayoutStateRepo) ClearCapabilityUnavailable(_ context.Context, orgUUID string) error {
	r.clearCalls++
	delete(r.unavailable, orgUUID)
	return nil
}

func (r *fakePayoutStateRepo) IsCapabilityUnavailable(_ context.Context, orgUUID string) (bool, error) {
	return r.unavailable[orgUUID], nil
}
