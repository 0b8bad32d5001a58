package app

import (
	"gorm.io/gorm"

	claimrepo "github.com/suresight/suresight-backend/internal/data/repos/claim"
	insurablerepo "github.com/suresight/suresight-backend/internal/data/repos/insurable"
	policyrepo "github.com/suresight/suresight-backend/internal/data/repos/policy"
	userrepo "github.com/suresight/suresight-backend/internal/data/repos/user"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
)

type Repos struct {
	User      userrepo.UserRepo
	Policy    policyrepo.PolicyRepo
	Insurable insurablerepo.InsurableRepo
	Claim     claimrepo.ClaimRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      userrepo.NewUserRepo(db, log),
		Policy:    policyrepo.NewPolicyRepo(db, log),
		Insurable: insurablerepo.NewInsurableRepo(db, log),
		Claim:     claimrepo.NewClaimRepo(db, log),
	}
}
