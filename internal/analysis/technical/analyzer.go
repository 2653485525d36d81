package technical

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/pkg/models"
)

// Виды скользящей средней
const (
	SMA = "sma"
	EMA = "ema"
)

// Analyzer рассчитывает индикаторы, накладываемые на график
type Analyzer struct {
	period int
	kind   string
}

// NewAnalyzer создает новый анализатор по настройкам профиля
func NewAnalyzer(cfg config.ProfileConfig) *Analyzer {
	return &Analyzer{
		period: cfg.MAPeriod,
		kind:   cfg.MAType,
	}
}

// Enabled скользящая средняя включена
func (a *Analyzer) Enabled() bool {
	return a != nil && a.period >= 2
}

// Period период скользящей средней
func (a *Analyzer) Period() int {
	return a.period
}

// MovingAverage скользящая средняя по ценам закрытия всей серии.
// Значения, для которых окно ещё не заполнено, равны NaN.
// Возвращает nil, если индикатор выключен или свечей меньше периода.
func (a *Analyzer) MovingAverage(candles []models.Candle) []float64 {
	if !a.Enabled() || len(candles) < a.period {
		return nil
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	var ma []float64
	switch a.kind {
	case EMA:
		ma = talib.Ema(closes, a.period)
	default:
		ma = talib.Sma(closes, a.period)
	}

	// talib заполняет период разгона нулями
	for i := 0; i < a.period-1 && i < len(ma); i++ {
		ma[i] = math.NaN()
	}
	return ma
}
