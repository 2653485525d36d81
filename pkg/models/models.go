package models

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Candle представляет свечу OHLCV
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid сообщает, что все цены свечи конечны
func (c Candle) Valid() bool {
	return isFinite(c.Open) && isFinite(c.High) && isFinite(c.Low) && isFinite(c.Close)
}

// Mid середина тела свечи
func (c Candle) Mid() float64 {
	return (c.Open + c.Close) / 2
}

// RawCandle строка свечи в том виде, в каком её отдаёт источник данных.
// Любое поле может отсутствовать.
type RawCandle struct {
	Time   string   `json:"time"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

// CandleSeries ответ источника данных: серия свечей по инструменту и таймфрейму
type CandleSeries struct {
	Symbol       string   `json:"symbol"`
	Timeframe    string   `json:"timeframe"`
	From         string   `json:"from"`
	Till         string   `json:"till"`
	CandlesCount int      `json:"candlesCount"`
	Candles      []Candle `json:"candles"`
}

// Key идентичность серии: смена ключа сбрасывает состояние графика
func (s *CandleSeries) Key() string {
	if s == nil {
		return ""
	}
	return s.Symbol + "|" + s.Timeframe
}

// Форматы времени, которые встречаются у источников
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime разбирает время свечи. Для неразборчивой строки возвращает нулевое время.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Sanitize превращает сырые строки в свечи. Строки с отсутствующими или
// неконечными OHLC отбрасываются молча, объём без значения считается нулём.
// Результат упорядочен по времени.
func Sanitize(rows []RawCandle) []Candle {
	candles := make([]Candle, 0, len(rows))
	timed := true
	for _, r := range rows {
		if r.Open == nil || r.High == nil || r.Low == nil || r.Close == nil {
			continue
		}
		c := Candle{
			Time:  ParseTime(r.Time),
			Open:  *r.Open,
			High:  *r.High,
			Low:   *r.Low,
			Close: *r.Close,
		}
		if !c.Valid() {
			continue
		}
		if r.Volume != nil && isFinite(*r.Volume) && *r.Volume > 0 {
			c.Volume = *r.Volume
		}
		if c.Time.IsZero() {
			timed = false
		}
		candles = append(candles, c)
	}

	// Без времени порядок источника сохраняется как есть
	if timed {
		sort.SliceStable(candles, func(i, j int) bool {
			return candles[i].Time.Before(candles[j].Time)
		})
	}
	return candles
}

// NewSeries собирает серию и заполняет производные поля
func NewSeries(symbol, timeframe string, candles []Candle) *CandleSeries {
	s := &CandleSeries{
		Symbol:       symbol,
		Timeframe:    timeframe,
		CandlesCount: len(candles),
		Candles:      candles,
	}
	if len(candles) > 0 {
		s.From = candles[0].Time.Format(time.RFC3339)
		s.Till = candles[len(candles)-1].Time.Format(time.RFC3339)
	}
	return s
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
