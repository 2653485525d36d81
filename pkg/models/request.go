package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Поставщики свечей
const (
	ProviderMOEX    = "moex"
	ProviderBinance = "binance"
)

var (
	ErrInvalidSymbol    = errors.New("некорректный тикер")
	ErrInvalidTimeframe = errors.New("неподдерживаемый таймфрейм")
	ErrUnknownProvider  = errors.New("неизвестный поставщик данных")
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,12}$`)

var timeframes = map[string][]string{
	ProviderMOEX:    {"10m", "1h", "1d"},
	ProviderBinance: {"1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "8h", "12h", "1d", "3d", "1w", "1M"},
}

// NormalizeSymbol приводит тикер к верхнему регистру и проверяет формат
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return s, nil
}

// Timeframes поддерживаемые таймфреймы поставщика
func Timeframes(provider string) []string {
	return timeframes[provider]
}

// NormalizeTimeframe проверяет, что поставщик поддерживает таймфрейм
func NormalizeTimeframe(provider, timeframe string) (string, error) {
	supported, ok := timeframes[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	tf := strings.TrimSpace(timeframe)
	for _, s := range supported {
		if s == tf {
			return tf, nil
		}
	}
	return "", fmt.Errorf("%w: %q для %s", ErrInvalidTimeframe, timeframe, provider)
}
