package loader

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/skalibog/vpchart/internal/config"
	"github.com/skalibog/vpchart/internal/exchange"
	"github.com/skalibog/vpchart/pkg/logger"
	"github.com/skalibog/vpchart/pkg/models"
)

// Result итог загрузки по запросу с номером Token
type Result struct {
	Token     uint64
	Symbol    string
	Timeframe string
	Series    *models.CandleSeries
	Err       error
}

// Loader загружает свечи с задержкой после последнего запроса.
// Каждый запрос получает возрастающий номер; ответы на устаревшие
// запросы отбрасываются. Одинаковые одновременные загрузки идут одним вызовом источника.
type Loader struct {
	fetcher exchange.Fetcher
	delay   time.Duration
	timeout time.Duration

	group   singleflight.Group
	token   atomic.Uint64
	results chan Result

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	timer   *time.Timer
	closers []func() error
	closed  bool
}

// New создает загрузчик поверх источника
func New(fetcher exchange.Fetcher, cfg config.LoaderConfig) *Loader {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		fetcher: fetcher,
		delay:   time.Duration(cfg.DebounceMs) * time.Millisecond,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		results: make(chan Result, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Results канал актуальных результатов
func (l *Loader) Results() <-chan Result {
	return l.results
}

// IsCurrent сообщает, что token номер последнего запроса
func (l *Loader) IsCurrent(token uint64) bool {
	return l.token.Load() == token
}

// OnClose добавляет освобождение ресурса при Close
func (l *Loader) OnClose(fn func() error) {
	l.mu.Lock()
	l.closers = append(l.closers, fn)
	l.mu.Unlock()
}

// Request ставит загрузку в очередь. Запрос, сделанный раньше чем через
// delay после предыдущего, заменяет его.
func (l *Loader) Request(symbol, timeframe string) uint64 {
	token := l.token.Add(1)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return token
	}
	if l.timer != nil && l.timer.Stop() {
		l.wg.Done()
	}
	l.wg.Add(1)
	l.timer = time.AfterFunc(l.delay, func() {
		defer l.wg.Done()
		l.run(token, symbol, timeframe)
	})
	return token
}

// Load загружает серию сразу, без задержки и без номера запроса
func (l *Loader) Load(ctx context.Context, symbol, timeframe string) (*models.CandleSeries, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	key := symbol + "|" + timeframe
	v, err, shared := l.group.Do(key, func() (interface{}, error) {
		return l.fetcher.FetchCandles(ctx, symbol, timeframe)
	})
	if shared {
		logger.Debug("Загрузка объединена с выполняющейся", zap.String("key", key))
	}
	if err != nil {
		return nil, err
	}
	return v.(*models.CandleSeries), nil
}

func (l *Loader) run(token uint64, symbol, timeframe string) {
	if !l.IsCurrent(token) {
		return
	}

	start := time.Now()
	series, err := l.Load(l.ctx, symbol, timeframe)
	if !l.IsCurrent(token) {
		logger.Debug("Устаревший ответ отброшен",
			zap.Uint64("token", token),
			zap.String("symbol", symbol),
			zap.String("timeframe", timeframe))
		return
	}
	if err != nil {
		logger.Error("Ошибка загрузки свечей",
			zap.String("symbol", symbol),
			zap.String("timeframe", timeframe),
			zap.Error(err))
	} else {
		logger.Info("Свечи загружены",
			zap.String("key", series.Key()),
			zap.Int("candles", len(series.Candles)),
			zap.Duration("elapsed", time.Since(start)))
	}

	res := Result{Token: token, Symbol: symbol, Timeframe: timeframe, Series: series, Err: err}
	for {
		select {
		case l.results <- res:
			return
		case <-l.ctx.Done():
			return
		default:
		}
		// в канале лежит прежний результат, который никто не забрал
		select {
		case <-l.results:
		default:
		}
	}
}

// Close останавливает загрузки и освобождает ресурсы
func (l *Loader) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	if l.timer != nil && l.timer.Stop() {
		l.wg.Done()
	}
	closers := l.closers
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()

	var err error
	for _, fn := range closers {
		err = multierr.Append(err, fn())
	}
	return err
}
