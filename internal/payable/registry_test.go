package payable

import (
	"context"
	"testing"

	"github.com/okalli/checkout-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePayable struct {
	domain.Payable
	id int64
}

func (f *fakePayable) PayableRef() domain.PayableRef {
	return domain.PayableRef{Type: "fake", ID: f.id}
}

func (f *fakePayable) CheckoutTotal() decimal.Decimal {
	return decimal.NewFromInt(10)
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	reg.Register("fake", func(ctx context.Context, id int64) (domain.Payable, error) {
		return &fakePayable{id: id}, nil
	})

	got, err := reg.Resolve(context.Background(), domain.PayableRef{Type: "fake", ID: 7})

	require.NoError(t, err)
	assert.Equal(t, domain.PayableRef{Type: "fake", ID: 7}, got.PayableRef())
}

func TestRegistryResolveUnknownType(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Resolve(context.Background(), domain.PayableRef{Type: "missing", ID: 1})

	assert.EqualError(t, err, `payable: no loader registered for type "missing"`)
}

func TestRegistryDuplicateRegistrationPanics(t *testing.T) {
	reg := NewRegistry()
	loader := func(ctx context.Context, id int64) (domain.Payable, error) {
		return nil, domain.ErrRecordNotFound
	}

	reg.Register("fake", loader)

	assert.Panics(t, func() {
		reg.Register("fake", loader)
	})
}
