// Package selector 提供多趟生成择优器
// 并行执行多趟带抖动的生成，选出公平性指数最高的方案
package selector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/banbiao/banbiao/pkg/scheduler/generator"
)

// DefaultPasses 默认生成趟数
const DefaultPasses = 20

// DefaultWorkers 默认并行工作协程数
const DefaultWorkers = 4

// Options 择优器选项
type Options struct {
	Passes    int               // 生成趟数，<=0 时取默认值
	Workers   int               // 并行度，<=0 时取默认值
	Seed      int64             // 基准种子，第 i 趟使用 Seed+i
	Generator generator.Options // 透传给每趟生成
}

// Best 择优结果
type Best struct {
	*generator.Result
	PassIndex int           `json:"pass_index"` // 胜出趟的序号（0 起）
	Passes    int           `json:"passes"`     // 实际完成趟数
	Duration  time.Duration `json:"duration"`   // 全部趟的总耗时
}

// Selector 多趟择优器
type Selector struct {
	options Options
	logger  *logger.RosterLogger
}

// NewSelector 创建择优器
func NewSelector(options Options) *Selector {
	if options.Passes <= 0 {
		options.Passes = DefaultPasses
	}
	if options.Workers <= 0 {
		options.Workers = DefaultWorkers
	}
	return &Selector{
		options: options,
		logger:  logger.NewRosterLogger(),
	}
}

// passResult 单趟产出
type passResult struct {
	index  int
	result *generator.Result
	err    error
}

// Run 并行执行多趟生成并返回最优方案
// 公平性指数严格更高者胜出；相同时序号小的趟胜出，保证可复现。
// 截止时间到达时返回已完成趟中的最优解
func (s *Selector) Run(ctx context.Context, input generator.Input) (*Best, error) {
	startTime := time.Now()

	gen, err := generator.NewGenerator(input, s.options.Generator)
	if err != nil {
		return nil, err
	}

	s.logger.StartGeneration(input.YearMonth, len(input.Nurses), s.options.Passes)

	jobChan := make(chan int, s.options.Passes)
	resultChan := make(chan passResult, s.options.Passes)

	var wg sync.WaitGroup
	for i := 0; i < s.options.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pass := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				result, err := gen.Generate(ctx, s.options.Seed+int64(pass))
				resultChan <- passResult{index: pass, result: result, err: err}
			}
		}()
	}

	for pass := 0; pass < s.options.Passes; pass++ {
		jobChan <- pass
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var best *Best
	completed := 0
	var lastErr error

	for pr := range resultChan {
		if pr.err != nil {
			lastErr = pr.err
			continue
		}
		completed++
		s.logger.PassComplete(pr.index, pr.result.FairnessIndex, len(pr.result.Violations))

		if best == nil ||
			pr.result.FairnessIndex > best.FairnessIndex ||
			(pr.result.FairnessIndex == best.FairnessIndex && pr.index < best.PassIndex) {
			best = &Best{Result: pr.result, PassIndex: pr.index}
		}
	}

	if best == nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("没有任何一趟生成完成")
	}

	best.Passes = completed
	best.Duration = time.Since(startTime)
	s.logger.GenerationComplete(input.YearMonth, best.Duration, best.FairnessIndex)

	return best, nil
}
