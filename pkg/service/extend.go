package service

import (
	"context"
	"errors"
	"time"

	"github.com/susatyo441/food-app/pkg/database"
	"github.com/susatyo441/food-app/pkg/model"
)

var ErrInvalidAmount = errors.New("extend amount must be positive")

type Extend interface {
	// Purchase spends amount points on a grant that raises the user's
	// daily quota by one while valid.
	Purchase(ctx context.Context, userID, amount int) (model.ExtendGrant, error)
}

type ExtendGeneric struct {
	Extends database.ExtendRepository

	Validity time.Duration // defaults to model.DefaultExtendValidity
	Clock    func() time.Time
}

func (eg *ExtendGeneric) Purchase(ctx context.Context, userID, amount int) (model.ExtendGrant, error) {
	if amount < 1 {
		return model.ExtendGrant{}, ErrInvalidAmount
	}

	now := eg.now()

	grant := model.ExtendGrant{
		Base:      model.Base{CreatedAt: now},
		UserID:    userID,
		Amount:    amount,
		ExpiredAt: now.Add(eg.validity()),
	}

	return eg.Extends.Purchase(ctx, grant)
}

func (eg *ExtendGeneric) now() time.Time {
	if eg.Clock != nil {
		return eg.Clock()
	}
	return time.Now()
}

func (eg *ExtendGeneric) validity() time.Duration {
	if eg.Validity > 0 {
		return eg.Validity
	}
	return model.DefaultExtendValidity
}
