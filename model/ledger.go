package model

// ChainResponse is the get_chain contract, served to clients and to peers alike.
type ChainResponse struct {
	Chain  []Block `json:"chain"`
	Length int     `json:"length"`
}

func NewChainResponse(chain []Block) ChainResponse {
	if chain == nil {
		chain = []Block{}
	}
	return ChainResponse{
		Chain:  chain,
		Length: len(chain),
	}
}

// Consistent reports whether the advertised length matches the chain actually sent.
func (r ChainResponse) Consistent() bool {
	return r.Length == len(r.Chain)
}

// ReplaceResponse is the result of reconciling with peers.
type ReplaceResponse struct {
	Replaced bool    `json:"replaced"`
	Chain    []Block `json:"chain"`
}
