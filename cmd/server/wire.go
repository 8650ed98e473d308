package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	alertgateway "safedesk/internal/alert/gateway"
	alerthandler "safedesk/internal/alert/handler"
	alertservice "safedesk/internal/alert/service"
	assistclient "safedesk/internal/assist/client"
	assisthandler "safedesk/internal/assist/handler"
	assistservice "safedesk/internal/assist/service"
	authhandler "safedesk/internal/auth/handler"
	authservice "safedesk/internal/auth/service"
	"safedesk/internal/auth/store/reviewer"
	complainthandler "safedesk/internal/complaint/handler"
	complaintmetrics "safedesk/internal/complaint/metrics"
	complaintservice "safedesk/internal/complaint/service"
	complaintstore "safedesk/internal/complaint/store"
	"safedesk/internal/evidence/blob"
	"safedesk/internal/evidence/classifier"
	evidencehandler "safedesk/internal/evidence/handler"
	evidencemetrics "safedesk/internal/evidence/metrics"
	"safedesk/internal/evidence/pipeline"
	evidenceservice "safedesk/internal/evidence/service"
	evidencestore "safedesk/internal/evidence/store"
	httpapi "safedesk/internal/http"
	"safedesk/internal/identity"
	"safedesk/internal/identity/sequence"
	jwttoken "safedesk/internal/jwt_token"
	messaginghandler "safedesk/internal/messaging/handler"
	messagingmetrics "safedesk/internal/messaging/metrics"
	messagingservice "safedesk/internal/messaging/service"
	messagingstore "safedesk/internal/messaging/store"
	orgstore "safedesk/internal/organization/store"
	"safedesk/internal/platform/config"
	"safedesk/internal/platform/metrics"
	"safedesk/internal/platform/postgres"
	"safedesk/internal/platform/redis"
	rlmetrics "safedesk/internal/ratelimit/metrics"
	rlmiddleware "safedesk/internal/ratelimit/middleware"
	rlservice "safedesk/internal/ratelimit/service"
	"safedesk/internal/ratelimit/store/bucket"
	"safedesk/pkg/platform/audit"
	"safedesk/pkg/platform/audit/store/kafka"
	"safedesk/pkg/platform/audit/store/memory"
	auditpg "safedesk/pkg/platform/audit/store/postgres"
	"safedesk/pkg/platform/audit/worker"
	"safedesk/pkg/platform/tx"
)

// app is everything serve needs to run and later release.
type app struct {
	handler     http.Handler
	pipeline    *pipeline.Pipeline
	auditWorker *worker.Worker
	// buckets is set when rate limit windows live in process memory and
	// need periodic sweeping.
	buckets *bucket.InMemoryBucketStore
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		a.closers = append(a.closers, func() { _ = db.Close() })
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, func() { _ = rdb.Close() })
	}

	recorder, auditWorker, err := buildAudit(ctx, a, cfg, db, logger)
	if err != nil {
		return nil, err
	}
	a.auditWorker = auditWorker

	var (
		complaints    complaintservice.Store
		messages      messagingservice.Store
		evidence      evidenceBackend
		organizations organizationBackend
		reviewers     reviewerBackend
		runner        tx.Runner
	)
	if db != nil {
		complaints = complaintstore.NewPostgres(db)
		messages = messagingstore.NewPostgres(db)
		evidence = evidencestore.NewPostgres(db)
		organizations = orgstore.NewPostgres(db)
		reviewers = reviewer.NewPostgres(db)
		runner = tx.NewSQLRunner(db)
	} else {
		logger.WarnContext(ctx, "DATABASE_URL not set, all data is kept in memory")
		complaints = complaintstore.NewInMemory()
		messages = messagingstore.NewInMemory()
		evidence = evidencestore.NewInMemory()
		organizations = orgstore.NewInMemory()
		reviewers = reviewer.NewInMemory()
		runner = tx.NewLockRunner()

		if err := seedInMemory(ctx, organizations, reviewers, cfg.Case.PINHashCost, logger); err != nil {
			return nil, fmt.Errorf("seed in-memory data: %w", err)
		}
	}

	issuer := identity.NewIssuer(buildSequencer(db, rdb),
		identity.WithPrefix(cfg.Case.Prefix),
		identity.WithHashCost(cfg.Case.PINHashCost),
	)

	complaintSvc := complaintservice.New(complaints, issuer,
		complaintservice.WithLogger(logger),
		complaintservice.WithMetrics(complaintmetrics.New()),
		complaintservice.WithAuditRecorder(recorder),
		complaintservice.WithOrganizations(organizations),
		complaintservice.WithStrictTransitions(cfg.Case.StrictTransitions),
	)

	messagingSvc := messagingservice.New(messages, complaintSvc,
		messagingservice.WithLogger(logger),
		messagingservice.WithMetrics(messagingmetrics.New()),
		messagingservice.WithReviewerClosedWrites(cfg.Case.ReviewerClosedWrites),
		messagingservice.WithMaxLength(cfg.Case.MaxMessageLength),
	)

	blobs, uploads, err := buildBlobs(cfg.Evidence)
	if err != nil {
		return nil, err
	}

	evMetrics := evidencemetrics.New()
	scorer := classifier.New(cfg.Evidence.ClassifierURL, cfg.Evidence.ClassifierAPIKey, cfg.Evidence.ClassifierTimeout,
		classifier.WithObserver(evMetrics),
	)
	a.pipeline = pipeline.New(evidence, blobs, scorer, complaintSvc, messagingSvc, runner,
		pipeline.WithWorkers(cfg.Evidence.Workers),
		pipeline.WithQueueSize(cfg.Evidence.QueueSize),
		pipeline.WithJobTimeout(evidenceJobTimeout(cfg.Evidence)),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(evMetrics),
		pipeline.WithAuditRecorder(recorder),
	)
	evidenceSvc := evidenceservice.New(evidence, blobs, complaintSvc, a.pipeline,
		evidenceservice.WithLogger(logger),
		evidenceservice.WithMetrics(evMetrics),
		evidenceservice.WithMaxSize(cfg.Evidence.MaxFileSizeBytes()),
	)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	authSvc := authservice.New(reviewers, jwtService,
		authservice.WithLogger(logger),
		authservice.WithAuditRecorder(recorder),
		authservice.WithHashCost(cfg.Case.PINHashCost),
	)

	assistSvc := assistservice.New(
		assistclient.New(cfg.Assist.URL, cfg.Assist.APIKey, cfg.Assist.Timeout),
		assistservice.WithLogger(logger),
	)
	alertSvc := alertservice.New(
		alertgateway.New(cfg.Alert.URL, cfg.Alert.AccountSID, cfg.Alert.AuthToken, cfg.Alert.From, cfg.Alert.Timeout),
		alertservice.WithLogger(logger),
	)

	limiter, err := buildRateLimiter(a, cfg, rdb, logger)
	if err != nil {
		return nil, err
	}

	health := map[string]httpapi.HealthCheck{}
	if db != nil {
		health["database"] = db.PingContext
	}
	if rdb != nil {
		health["redis"] = rdb.Health
	}

	a.handler = httpapi.NewRouter(httpapi.Handlers{
		Complaints: complainthandler.New(complaintSvc, logger),
		Messages:   messaginghandler.New(messagingSvc, logger),
		Evidence:   evidencehandler.New(evidenceSvc, logger, cfg.Evidence.MaxFileSizeBytes()),
		Auth:       authhandler.New(authSvc, logger),
		Assist:     assisthandler.New(assistSvc, logger),
		Alert:      alerthandler.New(alertSvc, logger),
	}, httpapi.Deps{
		Logger:         logger,
		Tokens:         jwttoken.NewJWTServiceAdapter(jwtService),
		RateLimiter:    limiter,
		Metrics:        metrics.New(),
		AdminToken:     cfg.Server.AdminToken,
		RequestTimeout: cfg.Server.RequestTimeout,
		HealthChecks:   health,
		Uploads:        uploads,
	})
	return a, nil
}

type organizationBackend interface {
	organizationSaver
	complaintservice.OrganizationStore
}

type reviewerBackend interface {
	reviewerSaver
	authservice.Store
}

type evidenceBackend interface {
	pipeline.Store
	evidenceservice.Store
}

func buildAudit(ctx context.Context, a *app, cfg config.Config, db *sql.DB, logger *slog.Logger) (*audit.Recorder, *worker.Worker, error) {
	var primary audit.Store
	if db != nil {
		primary = auditpg.New(db)
	} else {
		primary = memory.NewInMemoryStore()
	}

	store := primary
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafka.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, sink.Close)
		store = audit.NewFanoutStore(primary, logger, sink)
	}

	recorder := audit.NewRecorder(store, logger)
	return recorder, worker.NewWorker(store, recorder.Entries(), logger), nil
}

// buildSequencer keeps the case counter next to the cases. With Postgres the
// counter row lives in the same database as the complaints, so losing Redis
// can never rewind numbering below rows that already exist. Redis counts only
// for in-memory deployments that share one across restarts.
func buildSequencer(db *sql.DB, rdb *redis.Client) identity.Sequencer {
	switch {
	case db != nil:
		return sequence.NewPostgres(db)
	case rdb != nil:
		return sequence.NewRedis(rdb)
	default:
		return sequence.NewInMemory()
	}
}

// jobOverhead covers reading the blob and the write-back transaction on top
// of the classifier call itself.
const jobOverhead = 5 * time.Second

// evidenceJobTimeout bounds one scoring job so it never cuts the classifier
// call short.
func evidenceJobTimeout(cfg config.EvidenceConfig) time.Duration {
	if cfg.ClassifierTimeout <= 0 {
		return 0
	}
	return cfg.ClassifierTimeout + jobOverhead
}

type blobBackend interface {
	pipeline.Blobs
	evidenceservice.Blobs
}

// buildBlobs returns the evidence blob store and, for disk storage, the
// handler that serves it.
func buildBlobs(cfg config.EvidenceConfig) (blobBackend, http.Handler, error) {
	if cfg.S3Bucket != "" {
		return blob.NewS3(blob.S3Config{
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.PublicBaseURL,
		}), nil, nil
	}
	disk, err := blob.NewDisk(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, nil, err
	}
	return disk, disk, nil
}

func buildRateLimiter(a *app, cfg config.Config, rdb *redis.Client, logger *slog.Logger) (*rlmiddleware.Middleware, error) {
	limits := rlservice.LimitsFromConfig(&cfg)
	rlMetrics := rlmetrics.New()

	var primary rlservice.BucketStore
	if rdb != nil {
		primary = bucket.NewRedisBucketStore(rdb.Client)
	} else {
		a.buckets = bucket.New()
		primary = a.buckets
	}

	limiter, err := rlservice.New(primary,
		rlservice.WithLogger(logger),
		rlservice.WithMetrics(rlMetrics),
		rlservice.WithLimits(limits),
	)
	if err != nil {
		return nil, err
	}

	opts := []rlmiddleware.Option{
		rlmiddleware.WithDisabled(cfg.RateLimit.Disabled),
		rlmiddleware.WithMetrics(rlMetrics),
	}
	if rdb != nil {
		opts = append(opts, rlmiddleware.WithFallback(rlmiddleware.NewFallbackLimiter(limits, logger)))
	}
	return rlmiddleware.New(limiter, logger, opts...), nil
}
