package upload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gestaozabele/painel-conteudo/internal/apperr"
)

// LargeFileThreshold é o maior tamanho (bytes) que ainda pode passar pelo servidor do painel.
const LargeFileThreshold int64 = 4_194_304

// Strategy define por onde os bytes seguem até a origem.
type Strategy int

const (
	StrategyRelayed Strategy = iota
	StrategyDirect
)

func (s Strategy) String() string {
	if s == StrategyDirect {
		return "direct"
	}
	return "relayed"
}

// Decide escolhe a estratégia. Função pura: depende só dos tamanhos e do override.
func Decide(files []File, explicitDirect bool) Strategy {
	if explicitDirect {
		return StrategyDirect
	}
	for _, f := range files {
		if f.Size > LargeFileThreshold {
			return StrategyDirect
		}
	}
	return StrategyRelayed
}

// Destination é a base de URL resolvida para uma estratégia.
type Destination struct {
	Strategy Strategy
	BaseURL  string
}

// Origins guarda as bases configuradas para cada estratégia.
type Origins struct {
	Direct  string
	Relayed string
	// Allowed lista as bases aceitas como override por requisição.
	Allowed []string
}

var errOriginNotAllowed = errors.New("origem não permitida")

// Resolve devolve o destino da estratégia, aplicando override somente se permitido.
func (o Origins) Resolve(strategy Strategy, override string) (Destination, error) {
	base := o.Relayed
	if strategy == StrategyDirect {
		base = o.Direct
	}

	if override = strings.TrimRight(strings.TrimSpace(override), "/"); override != "" {
		allowed := false
		for _, candidate := range o.Allowed {
			if strings.EqualFold(strings.TrimRight(candidate, "/"), override) {
				allowed = true
				break
			}
		}
		if !allowed {
			return Destination{}, fmt.Errorf("%w: %s: %w", apperr.ErrValidation, override, errOriginNotAllowed)
		}
		base = override
	}

	return Destination{Strategy: strategy, BaseURL: strings.TrimRight(base, "/")}, nil
}
