// Package application 期权链应用服务
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/optionsengine/internal/derivatives/domain"
)

// ChainInput 请求中的期权链快照
type ChainInput struct {
	Underlying string               `json:"underlying"`
	Quotes     []domain.OptionQuote `json:"quotes"`
}

// FilterRequest 按 K/S 区间过滤
type FilterRequest struct {
	Chain ChainInput      `json:"chain"`
	Spot  decimal.Decimal `json:"spot"`
	Lower decimal.Decimal `json:"lower"`
	Upper decimal.Decimal `json:"upper"`
}

// AtmRequest 查询某到期日的平值行
type AtmRequest struct {
	Chain  ChainInput      `json:"chain"`
	Expiry decimal.Decimal `json:"expiry"`
	Spot   decimal.Decimal `json:"spot"`
}

// LookupRequest 按 (到期日, 行权价) 查询
type LookupRequest struct {
	Chain  ChainInput      `json:"chain"`
	Expiry decimal.Decimal `json:"expiry"`
	Strike decimal.Decimal `json:"strike"`
}

// RowDTO 单行结果
type RowDTO struct {
	Expiry decimal.Decimal `json:"expiry"`
	domain.ChainRow
}

// SummaryDTO 期权链概要
type SummaryDTO struct {
	Underlying  string            `json:"underlying"`
	Contracts   int               `json:"contracts"`
	Expirations []decimal.Decimal `json:"expirations"`
}

// ChainService 期权链服务，链为请求内构建的不可变快照
type ChainService struct {
	logger *slog.Logger
}

func NewChainService(logger *slog.Logger) *ChainService {
	return &ChainService{logger: logger}
}

// Build 构建期权链
func (s *ChainService) Build(ctx context.Context, in ChainInput) (*domain.OptionChain, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chain, err := domain.NewOptionChainFromQuotes(in.Underlying, in.Quotes)
	if err != nil {
		s.logger.DebugContext(ctx, "chain rejected", "underlying", in.Underlying, "quotes", len(in.Quotes), "error", err)
		return nil, fmt.Errorf("build %s chain: %w", in.Underlying, err)
	}
	return chain, nil
}

// Summary 返回合约数与到期日
func (s *ChainService) Summary(ctx context.Context, in ChainInput) (*SummaryDTO, error) {
	chain, err := s.Build(ctx, in)
	if err != nil {
		return nil, err
	}
	return &SummaryDTO{Underlying: chain.Underlying(), Contracts: chain.Len(), Expirations: chain.Expirations()}, nil
}

// Filter 返回 K/S 位于 [lower, upper] 的子链
func (s *ChainService) Filter(ctx context.Context, req FilterRequest) (*domain.OptionChain, error) {
	chain, err := s.Build(ctx, req.Chain)
	if err != nil {
		return nil, err
	}
	filtered, err := chain.FilterByMoneyness(req.Spot, req.Lower, req.Upper)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "chain filtered", "underlying", chain.Underlying(), "before", chain.Len(), "after", filtered.Len())
	return filtered, nil
}

// Atm 返回最接近 spot 的行
func (s *ChainService) Atm(ctx context.Context, req AtmRequest) (*RowDTO, error) {
	chain, err := s.Build(ctx, req.Chain)
	if err != nil {
		return nil, err
	}
	strike, err := chain.AtmStrike(req.Expiry, req.Spot)
	if err != nil {
		return nil, err
	}
	row, _ := chain.Lookup(req.Expiry, strike)
	return &RowDTO{Expiry: req.Expiry, ChainRow: row}, nil
}

// Lookup 按 (到期日, 行权价) 取行
func (s *ChainService) Lookup(ctx context.Context, req LookupRequest) (*RowDTO, error) {
	chain, err := s.Build(ctx, req.Chain)
	if err != nil {
		return nil, err
	}
	row, ok := chain.Lookup(req.Expiry, req.Strike)
	if !ok {
		return nil, domain.ErrOptionContractNotFound.WithDetail("expiry=%s strike=%s", req.Expiry, req.Strike)
	}
	return &RowDTO{Expiry: req.Expiry, ChainRow: row}, nil
}
