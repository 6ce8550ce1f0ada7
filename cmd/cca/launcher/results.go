package launcher

import (
	"strconv"
	"time"

	"github.com/rony4d/go-cca-client/cca/contracts/auction"
	"github.com/rony4d/go-cca-client/cca/steps"
	"github.com/rony4d/go-cca-client/integration"
)

type stepRow struct {
	MPS        uint32 `json:"mps"`
	BlockDelta uint64 `json:"blockDelta"`
}

// scheduleResult is printed by steps and decode-steps.
type scheduleResult struct {
	Network  string    `json:"network,omitempty"`
	Blocks   string    `json:"blocks"`
	TotalMPS string    `json:"totalMps"`
	Complete bool      `json:"complete"`
	Steps    []stepRow `json:"steps"`
	Data     string    `json:"data"`
}

func newScheduleResult(s steps.Schedule, data steps.Encoded) scheduleResult {
	res := scheduleResult{
		Blocks:   s.TotalBlocks().ToBig().String(),
		TotalMPS: s.TotalMPS().ToBig().String(),
		Steps:    make([]stepRow, len(s)),
		Data:     data.Hex(),
	}
	for i, st := range s {
		res.Steps[i] = stepRow{MPS: st.MPS, BlockDelta: st.BlockDelta}
	}
	return res
}

func (r scheduleResult) tables() []table {
	st := table{header: []string{"step", "mps", "blocks"}}
	for i, s := range r.Steps {
		st.rows = append(st.rows, []string{
			strconv.Itoa(i),
			strconv.FormatUint(uint64(s.MPS), 10),
			strconv.FormatUint(s.BlockDelta, 10),
		})
	}
	summary := map[string]string{
		"blocks":    r.Blocks,
		"total mps": r.TotalMPS,
		"complete":  strconv.FormatBool(r.Complete),
		"data":      r.Data,
	}
	if r.Network != "" {
		summary["network"] = r.Network
	}
	return []table{st, fields(summary)}
}

// txResult is an unsigned transaction for an external signer.
type txResult struct {
	ChainID uint64 `json:"chainId"`
	Method  string `json:"method"`
	auction.TxRequest
	Details map[string]string `json:"details,omitempty"`
}

func (r txResult) tables() []table {
	m := map[string]string{
		"chain id": strconv.FormatUint(r.ChainID, 10),
		"method":   r.Method,
		"to":       r.To.Hex(),
		"value":    r.Value.ToInt().String(),
		"data":     r.Data.String(),
	}
	for k, v := range r.Details {
		m[k] = v
	}
	return []table{fields(m)}
}

// statusResult is a snapshot of an auction at the head block.
type statusResult struct {
	ChainID uint64        `json:"chainId"`
	Head    uint64        `json:"head"`
	Phase   auction.Phase `json:"phase"`
	auction.State
	ClearingPriceDecimal string `json:"clearingPriceDecimal"`
	FloorPriceDecimal    string `json:"floorPriceDecimal"`
}

func (r statusResult) tables() []table {
	return []table{fields(map[string]string{
		"chain id":        strconv.FormatUint(r.ChainID, 10),
		"head":            strconv.FormatUint(r.Head, 10),
		"phase":           string(r.Phase),
		"auction":         r.Address.Hex(),
		"token":           r.Token.Hex(),
		"currency":        r.Currency.Hex(),
		"total supply":    r.TotalSupply.String(),
		"start block":     strconv.FormatUint(r.StartBlock, 10),
		"end block":       strconv.FormatUint(r.EndBlock, 10),
		"claim block":     strconv.FormatUint(r.ClaimBlock, 10),
		"tick spacing":    r.TickSpacing.String(),
		"floor price":     r.FloorPriceDecimal + " (q96 " + r.FloorPrice.String() + ")",
		"clearing price":  r.ClearingPriceDecimal + " (q96 " + r.ClearingPrice.String() + ")",
		"currency raised": r.CurrencyRaised.String(),
		"graduated":       strconv.FormatBool(r.Graduated),
	})}
}

type networkRow struct {
	Name         string `json:"name"`
	ChainID      uint64 `json:"chainId"`
	BlockTime    string `json:"blockTime"`
	BlocksPerDay int64  `json:"blocksPerDay"`
	RPC          string `json:"rpc"`
	Selected     bool   `json:"selected"`
}

type networksResult struct {
	Networks []networkRow `json:"networks"`
}

func newNetworksResult(presets []integration.NetworkPreset, selected string) networksResult {
	res := networksResult{Networks: make([]networkRow, len(presets))}
	for i, p := range presets {
		res.Networks[i] = networkRow{
			Name:         p.Name,
			ChainID:      p.ChainID,
			BlockTime:    p.BlockTime.String(),
			BlocksPerDay: blocksPerDay(p),
			RPC:          p.RPC,
			Selected:     p.Name == selected,
		}
	}
	return res
}

func (r networksResult) tables() []table {
	t := table{header: []string{"", "name", "chain id", "block time", "blocks/day", "rpc"}}
	for _, n := range r.Networks {
		mark := ""
		if n.Selected {
			mark = "*"
		}
		t.rows = append(t.rows, []string{mark, n.Name, strconv.FormatUint(n.ChainID, 10), n.BlockTime, strconv.FormatInt(n.BlocksPerDay, 10), n.RPC})
	}
	return []table{t}
}

// blocksPerDay is the length of a one-day auction on p.
func blocksPerDay(p integration.NetworkPreset) int64 {
	n, err := p.BlocksFor(24 * time.Hour)
	if err != nil {
		return 0
	}
	return n
}
