// Package verify replays every account's transaction log and checks the
// derived balances and holding quantities against the stored rows. A mismatch
// is an operator-attention signal, not something to repair silently.
package verify

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"

	"cryptofolio/src/ledger"
	"cryptofolio/src/model"
	"cryptofolio/src/repository"
)

type Verify struct {
	Log *logger.Entry

	// UID restricts verification to one account; empty verifies all.
	UID string
}

func (v *Verify) Start() error {
	if v.Log == nil {
		v.Log = logger.NewEntry(logger.StandardLogger())
	}

	repo := repository.NewLedgerRepository()
	excRepo := repository.NewExceptionRepository()
	engine := ledger.NewEngine(repo, nil)

	ctx := context.Background()

	var uids []string
	if v.UID != "" {
		uids = []string{v.UID}
	} else {
		accounts, err := repo.ListAccounts(ctx)
		if err != nil {
			return err
		}
		for _, a := range accounts {
			uids = append(uids, a.UID)
		}
	}

	bad := 0
	for _, uid := range uids {
		err := engine.VerifyAccount(ctx, uid)
		switch {
		case err == nil:
			v.Log.WithField("uid", uid).Info("Account consistent")
		case errors.Is(err, model.ErrInternalInconsistency):
			v.Log.WithField("uid", uid).Error("Account INCONSISTENT with its transaction log")
			bad++

			exc := &model.Exception{
				Service:    "cryptofolio",
				Module:     "ledger",
				Method:     "VerifyAccount",
				AccountUID: uid,
				Message:    err.Error(),
				Level:      "error",
			}
			if excErr := excRepo.Create(ctx, exc); excErr != nil {
				v.Log.WithError(excErr).Warn("Failed to persist exception record")
			}
		default:
			return err
		}
	}

	if bad > 0 {
		return model.ErrInternalInconsistency
	}

	v.Log.WithField("accounts", len(uids)).Info("All accounts consistent")
	return nil
}
