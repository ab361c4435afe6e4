package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/skillfolio-api/internal/certificate"
	"github.com/noah-isme/skillfolio-api/internal/config"
	"github.com/noah-isme/skillfolio-api/internal/credential"
	"github.com/noah-isme/skillfolio-api/internal/models"
	"github.com/noah-isme/skillfolio-api/internal/repository"
	"github.com/noah-isme/skillfolio-api/internal/storage"
)

const (
	testIssuer = "http://localhost:5000"
	testSecret = "service-test-secret"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Activity{}, &models.Student{}, &models.AuditLog{}))
	return db
}

func testKeys() credential.KeyMaterial {
	return credential.KeyMaterial{Algorithm: config.AlgorithmHS256, Secret: []byte(testSecret)}
}

func testVerifier(t *testing.T) *credential.Verifier {
	t.Helper()
	verifier, err := credential.NewVerifier(testKeys(), credential.WithIssuer(testIssuer))
	require.NoError(t, err)
	return verifier
}

// countingRepo records which store operations ran.
type countingRepo struct {
	repository.ActivityRepository
	mu    sync.Mutex
	calls map[string]int
}

func newCountingRepo(inner repository.ActivityRepository) *countingRepo {
	return &countingRepo{ActivityRepository: inner, calls: map[string]int{}}
}

func (r *countingRepo) count(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op]++
}

func (r *countingRepo) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, n := range r.calls {
		sum += n
	}
	return sum
}

func (r *countingRepo) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls["transition"] + r.calls["attach"]
}

func (r *countingRepo) GetByID(ctx context.Context, id string) (models.Activity, error) {
	r.count("get")
	return r.ActivityRepository.GetByID(ctx, id)
}

func (r *countingRepo) Transition(ctx context.Context, id string, patch repository.TransitionPatch) (models.Activity, error) {
	r.count("transition")
	return r.ActivityRepository.Transition(ctx, id, patch)
}

func (r *countingRepo) AttachCredential(ctx context.Context, id, token, locator string) (models.Activity, error) {
	r.count("attach")
	return r.ActivityRepository.AttachCredential(ctx, id, token, locator)
}

// countingIssuer wraps an issuer and counts calls.
type countingIssuer struct {
	inner IssuerService
	mu    sync.Mutex
	calls int
}

func (i *countingIssuer) Issue(ctx context.Context, activity models.Activity, moderator, comment string) (IssueResult, error) {
	i.mu.Lock()
	i.calls++
	i.mu.Unlock()
	return i.inner.Issue(ctx, activity, moderator, comment)
}

func (i *countingIssuer) Calls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

type failingSink struct{}

func (failingSink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	return "", fmt.Errorf("%w: bucket offline", storage.ErrSinkUnavailable)
}

type brokenSigner struct{}

func (brokenSigner) Issuer() string { return testIssuer }

func (brokenSigner) Sign(credential.Claims) (string, error) {
	return "", fmt.Errorf("%w: HS256 secret missing", credential.ErrSigningConfig)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.Type)
	}
	return types
}

// fixture wires the full moderation pipeline against sqlite and a temp directory sink.
type fixture struct {
	db         *gorm.DB
	repo       *countingRepo
	activities ActivityService
	issuer     *countingIssuer
	moderation ModerationService
	audit      AuditService
	events     *recordingPublisher
	sinkDir    string
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	signer TokenSigner
	sink   storage.DocumentSink
}

func withSigner(signer TokenSigner) fixtureOption {
	return func(c *fixtureConfig) { c.signer = signer }
}

func withSink(sink storage.DocumentSink) fixtureOption {
	return func(c *fixtureConfig) { c.sink = sink }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	db := setupTestDB(t)

	localSink, err := storage.NewLocalSink(t.TempDir(), "/public/pdfs")
	require.NoError(t, err)

	signer, err := credential.NewSigner(testKeys(), testIssuer)
	require.NoError(t, err)

	cfg := fixtureConfig{signer: signer, sink: localSink}
	for _, opt := range opts {
		opt(&cfg)
	}

	repo := newCountingRepo(repository.NewActivityRepository(db))
	issuer := &countingIssuer{inner: NewIssuerService(cfg.signer, certificate.NewRenderer("footer", nil), cfg.sink, testIssuer+"/api/verify", testLogger())}
	audit := NewAuditService(repository.NewAuditLogRepository(db), testLogger())
	events := &recordingPublisher{}

	return &fixture{
		db:         db,
		repo:       repo,
		activities: NewActivityService(repo, validator.New(), testLogger()),
		issuer:     issuer,
		moderation: NewModerationService(repo, issuer, audit, events, validator.New(), 0, testLogger()),
		audit:      audit,
		events:     events,
		sinkDir:    localSink.Dir(),
	}
}

func (f *fixture) documents(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.sinkDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func strPtr(value string) *string {
	return &value
}

func floatPtr(value float64) *float64 {
	return &value
}
