package service

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"kiosk-inventory/internal/model"
	"kiosk-inventory/internal/repository"
	"kiosk-inventory/pkg/logger"

	"go.uber.org/zap"
)

const (
	codePrefixPais   = "PAIS"
	codePrefixCustom = "CUST"

	codeRandomLength = 5
	codeMaxAttempts  = 10

	base36Charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

type CodeGenerator interface {
	// GenerateUniqueCode builds a "<PREFIX>-XXXXX" ticket code, retrying up
	// to 10 times on collision against the catalog. When every attempt
	// collides it falls back to an epoch-ms derived code without a final
	// existence check; a collision there is an accepted residual risk.
	GenerateUniqueCode(ctx context.Context, category model.TicketCategory) (string, error)
}

type CodeGeneratorImpl struct {
	repo repository.TicketTypeRepository
	// overridable in tests
	randIntN func(n int) int
	now      func() time.Time
}

func NewCodeGenerator(repo repository.TicketTypeRepository) CodeGenerator {
	return &CodeGeneratorImpl{
		repo:     repo,
		randIntN: rand.Intn,
		now:      time.Now,
	}
}

func (g *CodeGeneratorImpl) GenerateUniqueCode(ctx context.Context, category model.TicketCategory) (string, error) {
	prefix := codePrefixCustom
	if category == model.TicketCategoryPais {
		prefix = codePrefixPais
	}

	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		candidate := prefix + "-" + g.randomSuffix()

		exists, err := g.repo.CodeExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	fallback := prefix + "-" + timestampSuffix(g.now())
	logger.WithComponent("codegen").Warn("code generation exhausted retries, using timestamp fallback",
		zap.String("code", fallback))
	return fallback, nil
}

func (g *CodeGeneratorImpl) randomSuffix() string {
	var b strings.Builder
	b.Grow(codeRandomLength)
	for i := 0; i < codeRandomLength; i++ {
		b.WriteByte(base36Charset[g.randIntN(len(base36Charset))])
	}
	return b.String()
}

// timestampSuffix takes the last 5 base-36 chars of the epoch-ms clock,
// left-padded for the (theoretical) short case.
func timestampSuffix(t time.Time) string {
	s := strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
	if len(s) > codeRandomLength {
		s = s[len(s)-codeRandomLength:]
	}
	for len(s) < codeRandomLength {
		s = "0" + s
	}
	return s
}
