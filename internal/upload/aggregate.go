package upload

// Mode indica qual transporte produziu as respostas.
type Mode int

const (
	ModeSingle Mode = iota
	ModeBatch
)

// Normalize converte respostas da origem em resultados uniformes, na ordem recebida.
// Não faz I/O; o chamador verifica se a quantidade bate com os arquivos enviados.
func Normalize(mode Mode, raw []OriginResponse) []Outcome {
	outcomes := make([]Outcome, 0, len(raw))
	for _, resp := range raw {
		switch mode {
		case ModeBatch:
			for i := range resp.Data.Files {
				desc := resp.Data.Files[i]
				outcomes = append(outcomes, Outcome{Success: true, Descriptor: &desc})
			}
		case ModeSingle:
			if resp.Data.File == nil {
				continue
			}
			desc := *resp.Data.File
			outcomes = append(outcomes, Outcome{Success: true, Descriptor: &desc})
		}
	}
	return outcomes
}
