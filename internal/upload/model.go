// Package upload decide e executa o envio de arquivos do painel para a origem de conteúdo.
//
// Arquivos pequenos passam pelo próprio servidor do painel (RELAYED, via BACKEND_ORIGIN);
// arquivos grandes ou pedidos explícitos vão direto para a origem pública (DIRECT).
// Mais de um arquivo sempre segue em uma única chamada multi-arquivo.
package upload

// File é um arquivo lido da requisição de entrada. Não é alterado depois de lido.
type File struct {
	Name     string
	Size     int64
	MimeType string
	Bytes    []byte
}

// Request representa um pedido de upload.
type Request struct {
	Files          []File
	Feature        string
	ExplicitDirect *bool
	OriginOverride string
}

// Descriptor é o arquivo armazenado conforme devolvido pela origem.
type Descriptor struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	Name         string `json:"name"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	Category     string `json:"category"`
}

// Outcome é o resultado de um arquivo, na mesma ordem da entrada.
type Outcome struct {
	Success      bool        `json:"success"`
	Descriptor   *Descriptor `json:"descriptor"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
}

// OriginResponse é o envelope devolvido pelos endpoints /upload e /upload/upload-multiple.
type OriginResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    originData `json:"data"`
}

type originData struct {
	File  *Descriptor  `json:"file,omitempty"`
	Files []Descriptor `json:"files,omitempty"`
}
