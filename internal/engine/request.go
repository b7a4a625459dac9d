package engine

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-playground/validator/v10"

	apperrors "quant-engine/internal/errors"
	"quant-engine/internal/models"
)

// TickerRequest carries everything known about one ticker. Series are newest first.
type TickerRequest struct {
	Ticker string `validate:"required"`

	Prices    models.PriceSeries `validate:"dive,finite,gt=0"`
	Benchmark models.PriceSeries `validate:"dive,finite,gt=0"`
	Pair      models.PriceSeries `validate:"dive,finite,gt=0"`

	Revenue      []float64 `validate:"dive,finite"`
	Earnings     []float64 `validate:"dive,finite"`
	FairValues   []float64 `validate:"dive,finite,gt=0"`
	PeerMomentum []float64 `validate:"dive,finite"`

	MarketCap        float64 `validate:"finite,gte=0"`
	AvgDailyVolume   float64 `validate:"finite,gte=0"` // dollars; estimated from market cap when zero
	TradeValue       float64 `validate:"finite,gte=0"`
	ExpectedEdgeBps  float64 `validate:"finite,gte=0"` // zero uses the statistical arbitrage edge
	SignalDecayHours float64 `validate:"finite,gte=0"`
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		switch f.Kind() {
		case reflect.Float32, reflect.Float64:
			x := f.Float()
			return !math.IsNaN(x) && !math.IsInf(x, 0)
		default:
			return true
		}
	})
	return v
}

// Validate checks the request and returns the first problem as a ValidationError.
func (r TickerRequest) Validate() error {
	err := requestValidator.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if apperrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.NewValidationError(fe.Namespace(), fe.Value(), fmt.Sprintf("failed %q check", fe.Tag()))
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}
