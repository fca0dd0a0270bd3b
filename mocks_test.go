package signup_test

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/goliatone/go-signup"
)

// MemStore is an in-memory RecordStore used across the suite.
type MemStore struct {
	mu      sync.Mutex
	pk      string
	records []signup.Record

	GetErr    error
	CreateErr error
	UpdateErr error
}

func NewMemStore(pk string) *MemStore {
	return &MemStore{pk: pk}
}

func (s *MemStore) Get(_ context.Context, field, value string) (signup.Record, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if fmt.Sprint(record[field]) == value {
			out := signup.Record{}
			maps.Copy(out, record)
			return out, nil
		}
	}
	return nil, nil
}

func (s *MemStore) Create(_ context.Context, record signup.Record) (signup.Record, error) {
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := signup.Record{}
	maps.Copy(stored, record)
	s.records = append(s.records, stored)
	out := signup.Record{}
	maps.Copy(out, stored)
	return out, nil
}

func (s *MemStore) Update(_ context.Context, pk any, patch signup.Record) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if fmt.Sprint(record[s.pk]) == fmt.Sprint(pk) {
			maps.Copy(record, patch)
			return nil
		}
	}
	return fmt.Errorf("no record with pk %v", pk)
}

// Records returns a snapshot of the stored records.
func (s *MemStore) Records() []signup.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]signup.Record, 0, len(s.records))
	for _, record := range s.records {
		clone := signup.Record{}
		maps.Copy(clone, record)
		out = append(out, clone)
	}
	return out
}

// MockSessionManager records callback runs and established sessions.
type MockSessionManager struct {
	mu          sync.Mutex
	Callbacks   []signup.LoginCallback
	established []*signup.Identity
	CallbackErr error
}

func (m *MockSessionManager) RunLoginCallbacks(ctx context.Context, identity *signup.Identity, result *signup.LoginResult, sink signup.ResponseSink, extra *signup.RequestContext) error {
	if m.CallbackErr != nil {
		return m.CallbackErr
	}
	for _, callback := range m.Callbacks {
		if err := callback(ctx, identity, result, sink, extra); err != nil {
			return err
		}
		if !result.AllowedLogin {
			return nil
		}
	}
	return nil
}

func (m *MockSessionManager) EstablishSession(_ signup.ResponseSink, identity *signup.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.established = append(m.established, identity)
	return nil
}

func (m *MockSessionManager) Established() []*signup.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*signup.Identity(nil), m.established...)
}

// MockSink captures cookies written by the session layer.
type MockSink struct {
	mu      sync.Mutex
	cookies map[string]string
}

func (s *MockSink) SetCookie(name, value string, _ time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cookies == nil {
		s.cookies = map[string]string{}
	}
	s.cookies[name] = value
}

func (s *MockSink) Cookie(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cookies[name]
}

// fastHasher keeps handler tests free of bcrypt cost.
type fastHasher struct{}

func (fastHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", signup.ErrNoEmptyString
	}
	return "hashed:" + plaintext, nil
}

const testSigningKey = "test-signing-key"

// newTestSchema builds the auth resource the suite binds against.
func newTestSchema() *signup.Schema {
	return &signup.Schema{
		AuthResourceID: "users",
		Resources: []*signup.Resource{
			{
				ResourceID: "users",
				Columns: []*signup.Column{
					{Name: "id", Type: signup.ColumnString, PrimaryKey: true},
					{
						Name: "email",
						Type: signup.ColumnString,
						Validation: []*signup.ValidationRule{
							{Pattern: `^[^@\s]+@[^@\s]+\.[^@\s]+$`, Message: "Invalid email format"},
						},
					},
					{
						Name:      "password",
						Type:      signup.ColumnString,
						Virtual:   true,
						MinLength: 6,
						MaxLength: 20,
						Validation: []*signup.ValidationRule{
							{Pattern: `^[^\x00]*$`, Message: "Password contains invalid characters"},
						},
					},
					{Name: "password_hash", Type: signup.ColumnString},
					{Name: "email_confirmed", Type: signup.ColumnBoolean},
					{Name: "role", Type: signup.ColumnString},
				},
			},
		},
	}
}

type testEnv struct {
	Plugin   *signup.Plugin
	Store    *MemStore
	Sessions *MockSessionManager
	Mailer   *signup.BufferMailer
	Tokens   *signup.JWTTokenIssuer
}

// newTestEnv binds a plugin against the test schema. confirm toggles the
// email-confirmation gate.
func newTestEnv(confirm bool, mutate func(*signup.Options)) (*testEnv, error) {
	mailer := &signup.BufferMailer{}

	opts := signup.Options{
		EmailField:        "email",
		PasswordField:     "password",
		PasswordHashField: "password_hash",
		BrandName:         "Acme Admin",
		DefaultFieldValues: map[string]any{
			"role": "member",
		},
	}
	if confirm {
		opts.ConfirmEmails = &signup.ConfirmEmails{
			EmailConfirmedField: "email_confirmed",
			Adapter:             mailer,
			SendFrom:            "no-reply@acme.test",
		}
	}
	if mutate != nil {
		mutate(&opts)
	}

	plugin, err := signup.New(opts)
	if err != nil {
		return nil, err
	}

	tokens := signup.NewJWTTokenIssuer([]byte(testSigningKey), opts.BrandName, nil)
	store := NewMemStore("id")
	sessions := &MockSessionManager{}

	plugin.WithHasher(fastHasher{}).WithTokenIssuer(tokens)

	if err := plugin.Bind(newTestSchema(), store, sessions); err != nil {
		return nil, err
	}
	if err := plugin.ValidateAfterDiscover(); err != nil {
		return nil, err
	}

	return &testEnv{
		Plugin:   plugin,
		Store:    store,
		Sessions: sessions,
		Mailer:   mailer,
		Tokens:   tokens,
	}, nil
}
