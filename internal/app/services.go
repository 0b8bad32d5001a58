package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	rediscache "github.com/suresight/suresight-backend/internal/clients/redis"
	"github.com/suresight/suresight-backend/internal/data/sequence"
	"github.com/suresight/suresight-backend/internal/modules/adjudication"
	"github.com/suresight/suresight-backend/internal/modules/verification"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
	"github.com/suresight/suresight-backend/internal/platform/docai"
	"github.com/suresight/suresight-backend/internal/platform/gcs"
	"github.com/suresight/suresight-backend/internal/platform/gemini"
	"github.com/suresight/suresight-backend/internal/platform/visionhints"
	"github.com/suresight/suresight-backend/internal/services"
)

type Platform struct {
	Bucket      gcs.BucketService
	Interpreter gemini.Client
	Hints       visionhints.Service
	Documents   docai.Service
	Cache       rediscache.VerdictCache
}

type Services struct {
	Auth      services.AuthService
	User      services.UserService
	Avatar    services.AvatarService
	Evidence  services.EvidenceService
	Policy    services.PolicyService
	Insurable services.InsurableService
	Claim     services.ClaimService
}

func wirePlatform(log *logger.Logger) (Platform, error) {
	log.Info("Wiring platform clients...")

	bucket, err := gcs.NewBucketService(log)
	if err != nil {
		return Platform{}, fmt.Errorf("init bucket service: %w", err)
	}
	interpreter, err := gemini.NewClient(log)
	if err != nil {
		return Platform{}, fmt.Errorf("init interpreter client: %w", err)
	}
	hints, err := visionhints.NewService(context.Background(), log)
	if err != nil {
		return Platform{}, fmt.Errorf("init vision hints: %w", err)
	}
	documents, err := docai.NewService(log)
	if err != nil {
		return Platform{}, fmt.Errorf("init document ai: %w", err)
	}
	cache, err := rediscache.NewVerdictCache(log)
	if err != nil {
		return Platform{}, fmt.Errorf("init verdict cache: %w", err)
	}

	return Platform{
		Bucket:      bucket,
		Interpreter: interpreter,
		Hints:       hints,
		Documents:   documents,
		Cache:       cache,
	}, nil
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, platform Platform) (Services, error) {
	log.Info("Wiring services...")

	verifier := verification.NewVerifier(platform.Interpreter, log)
	adjudicator := adjudication.NewAdjudicator(platform.Interpreter, log)
	sequences := sequence.NewGenerator(repos.Policy, repos.Claim, log)

	avatar, err := services.NewAvatarService(log, platform.Bucket)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}
	evidence := services.NewEvidenceService(log, platform.Bucket)

	auth := services.NewAuthService(db, log, repos.User, avatar, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	user := services.NewUserService(db, log, repos.User)
	policy := services.NewPolicyService(db, log, repos.Policy, repos.Insurable, evidence, verifier, sequences, platform.Cache)
	insurable := services.NewInsurableService(db, log, repos.Policy, repos.Insurable, evidence, verifier)
	claim := services.NewClaimService(db, log, repos.Claim, repos.Policy, repos.Insurable,
		evidence, adjudicator, sequences, platform.Hints, platform.Documents, platform.Bucket)

	return Services{
		Auth:      auth,
		User:      user,
		Avatar:    avatar,
		Evidence:  evidence,
		Policy:    policy,
		Insurable: insurable,
		Claim:     claim,
	}, nil
}
