package model

import "strconv"

// FeatureVector is the full per-flow statistical snapshot handed to the
// classifier and to the output writers. One vector is produced for every
// processed packet; the column set is append-only so downstream consumers
// can rely on positional stability.
type FeatureVector struct {
	// Flow identity
	SrcIP     string
	DstIP     string
	SrcPort   uint16
	DstPort   uint16
	Protocol  uint8
	Timestamp string

	// Duration and rates
	FlowDuration float64
	FlowBytsPerS float64
	FlowPktsPerS float64
	FwdPktsPerS  float64
	BwdPktsPerS  float64

	// Counts and totals
	TotFwdPkts    uint32
	TotBwdPkts    uint32
	TotLenFwdPkts uint32
	TotLenBwdPkts uint32

	// Packet length statistics
	FwdPktLenMax  float64
	FwdPktLenMin  float64
	FwdPktLenMean float64
	FwdPktLenStd  float64
	BwdPktLenMax  float64
	BwdPktLenMin  float64
	BwdPktLenMean float64
	BwdPktLenStd  float64
	PktLenMax     float64
	PktLenMin     float64
	PktLenMean    float64
	PktLenStd     float64
	PktLenVar     float64

	// Header and payload accounting
	FwdHeaderLen   uint32
	BwdHeaderLen   uint32
	FwdSegSizeMin  uint32
	FwdActDataPkts uint32

	// Inter-arrival times (seconds)
	FlowIATMean float64
	FlowIATMax  float64
	FlowIATMin  float64
	FlowIATStd  float64
	FwdIATTot   float64
	FwdIATMax   float64
	FwdIATMin   float64
	FwdIATMean  float64
	FwdIATStd   float64
	BwdIATTot   float64
	BwdIATMax   float64
	BwdIATMin   float64
	BwdIATMean  float64
	BwdIATStd   float64

	// TCP flag counts
	FwdPSHFlags uint32
	BwdPSHFlags uint32
	FwdURGFlags uint32
	BwdURGFlags uint32
	FINFlagCnt  uint32
	SYNFlagCnt  uint32
	RSTFlagCnt  uint32
	PSHFlagCnt  uint32
	ACKFlagCnt  uint32
	URGFlagCnt  uint32
	ECEFlagCnt  uint32
	CWRFlagCnt  uint32

	// Ratios and window sizes
	DownUpRatio    float64
	PktSizeAvg     float64
	InitFwdWinByts uint16
	InitBwdWinByts uint16

	// Active/idle segmentation (seconds)
	ActiveMax  float64
	ActiveMin  float64
	ActiveMean float64
	ActiveStd  float64
	IdleMax    float64
	IdleMin    float64
	IdleMean   float64
	IdleStd    float64

	// Bulk-transfer averages
	FwdBytsBAvg   float64
	FwdPktsBAvg   float64
	BwdBytsBAvg   float64
	BwdPktsBAvg   float64
	FwdBlkRateAvg float64
	BwdBlkRateAvg float64
	FwdSegSizeAvg float64
	BwdSegSizeAvg float64

	// Subflow mirrors (single active flow, no sub-segmentation)
	SubflowFwdPkts uint32
	SubflowBwdPkts uint32
	SubflowFwdByts uint32
	SubflowBwdByts uint32

	// Engineered classifier inputs, appended after the base columns.
	FwdBwdRatio    float64
	AvgFwdPktSize  float64
	FlowEfficiency float64
	TotalFlags     uint32
	FlagDiversity  float64
	IsTCP          uint8
	IsUDP          uint8
	IsICMP         uint8
	SrcIsWellKnown uint8
	DstIsWellKnown uint8
	SrcIsCommon    uint8
	DstIsCommon    uint8

	Label string
}

// featureColumns is the stable output column order. New columns may only be
// appended before "label".
var featureColumns = []string{
	"src_ip", "dst_ip", "src_port", "dst_port", "protocol", "timestamp",
	"flow_duration", "flow_byts_s", "flow_pkts_s", "fwd_pkts_s", "bwd_pkts_s",
	"tot_fwd_pkts", "tot_bwd_pkts", "totlen_fwd_pkts", "totlen_bwd_pkts",
	"fwd_pkt_len_max", "fwd_pkt_len_min", "fwd_pkt_len_mean", "fwd_pkt_len_std",
	"bwd_pkt_len_max", "bwd_pkt_len_min", "bwd_pkt_len_mean", "bwd_pkt_len_std",
	"pkt_len_max", "pkt_len_min", "pkt_len_mean", "pkt_len_std", "pkt_len_var",
	"fwd_header_len", "bwd_header_len", "fwd_seg_size_min", "fwd_act_data_pkts",
	"flow_iat_mean", "flow_iat_max", "flow_iat_min", "flow_iat_std",
	"fwd_iat_tot", "fwd_iat_max", "fwd_iat_min", "fwd_iat_mean", "fwd_iat_std",
	"bwd_iat_tot", "bwd_iat_max", "bwd_iat_min", "bwd_iat_mean", "bwd_iat_std",
	"fwd_psh_flags", "bwd_psh_flags", "fwd_urg_flags", "bwd_urg_flags",
	"fin_flag_cnt", "syn_flag_cnt", "rst_flag_cnt", "psh_flag_cnt",
	"ack_flag_cnt", "urg_flag_cnt", "ece_flag_cnt", "cwr_flag_cnt",
	"down_up_ratio", "pkt_size_avg", "init_fwd_win_byts", "init_bwd_win_byts",
	"active_max", "active_min", "active_mean", "active_std",
	"idle_max", "idle_min", "idle_mean", "idle_std",
	"fwd_byts_b_avg", "fwd_pkts_b_avg", "bwd_byts_b_avg", "bwd_pkts_b_avg",
	"fwd_blk_rate_avg", "bwd_blk_rate_avg", "fwd_seg_size_avg", "bwd_seg_size_avg",
	"subflow_fwd_pkts", "subflow_bwd_pkts", "subflow_fwd_byts", "subflow_bwd_byts",
	"fwd_bwd_ratio", "avg_fwd_pkt_size", "flow_efficiency",
	"total_flags", "flag_diversity", "is_tcp", "is_udp", "is_icmp",
	"src_is_wellknown", "dst_is_wellknown", "src_is_common", "dst_is_common",
	"label",
}

// FeatureColumns returns the output column names in row order.
func FeatureColumns() []string {
	cols := make([]string, len(featureColumns))
	copy(cols, featureColumns)
	return cols
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func utoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}

// Row renders the vector in FeatureColumns order.
func (fv *FeatureVector) Row() []string {
	return []string{
		fv.SrcIP, fv.DstIP,
		strconv.Itoa(int(fv.SrcPort)), strconv.Itoa(int(fv.DstPort)),
		strconv.Itoa(int(fv.Protocol)), fv.Timestamp,
		ftoa(fv.FlowDuration), ftoa(fv.FlowBytsPerS), ftoa(fv.FlowPktsPerS),
		ftoa(fv.FwdPktsPerS), ftoa(fv.BwdPktsPerS),
		utoa(fv.TotFwdPkts), utoa(fv.TotBwdPkts),
		utoa(fv.TotLenFwdPkts), utoa(fv.TotLenBwdPkts),
		ftoa(fv.FwdPktLenMax), ftoa(fv.FwdPktLenMin),
		ftoa(fv.FwdPktLenMean), ftoa(fv.FwdPktLenStd),
		ftoa(fv.BwdPktLenMax), ftoa(fv.BwdPktLenMin),
		ftoa(fv.BwdPktLenMean), ftoa(fv.BwdPktLenStd),
		ftoa(fv.PktLenMax), ftoa(fv.PktLenMin), ftoa(fv.PktLenMean),
		ftoa(fv.PktLenStd), ftoa(fv.PktLenVar),
		utoa(fv.FwdHeaderLen), utoa(fv.BwdHeaderLen),
		utoa(fv.FwdSegSizeMin), utoa(fv.FwdActDataPkts),
		ftoa(fv.FlowIATMean), ftoa(fv.FlowIATMax), ftoa(fv.FlowIATMin), ftoa(fv.FlowIATStd),
		ftoa(fv.FwdIATTot), ftoa(fv.FwdIATMax), ftoa(fv.FwdIATMin),
		ftoa(fv.FwdIATMean), ftoa(fv.FwdIATStd),
		ftoa(fv.BwdIATTot), ftoa(fv.BwdIATMax), ftoa(fv.BwdIATMin),
		ftoa(fv.BwdIATMean), ftoa(fv.BwdIATStd),
		utoa(fv.FwdPSHFlags), utoa(fv.BwdPSHFlags),
		utoa(fv.FwdURGFlags), utoa(fv.BwdURGFlags),
		utoa(fv.FINFlagCnt), utoa(fv.SYNFlagCnt), utoa(fv.RSTFlagCnt),
		utoa(fv.PSHFlagCnt), utoa(fv.ACKFlagCnt), utoa(fv.URGFlagCnt),
		utoa(fv.ECEFlagCnt), utoa(fv.CWRFlagCnt),
		ftoa(fv.DownUpRatio), ftoa(fv.PktSizeAvg),
		strconv.Itoa(int(fv.InitFwdWinByts)), strconv.Itoa(int(fv.InitBwdWinByts)),
		ftoa(fv.ActiveMax), ftoa(fv.ActiveMin), ftoa(fv.ActiveMean), ftoa(fv.ActiveStd),
		ftoa(fv.IdleMax), ftoa(fv.IdleMin), ftoa(fv.IdleMean), ftoa(fv.IdleStd),
		ftoa(fv.FwdBytsBAvg), ftoa(fv.FwdPktsBAvg),
		ftoa(fv.BwdBytsBAvg), ftoa(fv.BwdPktsBAvg),
		ftoa(fv.FwdBlkRateAvg), ftoa(fv.BwdBlkRateAvg),
		ftoa(fv.FwdSegSizeAvg), ftoa(fv.BwdSegSizeAvg),
		utoa(fv.SubflowFwdPkts), utoa(fv.SubflowBwdPkts),
		utoa(fv.SubflowFwdByts), utoa(fv.SubflowBwdByts),
		ftoa(fv.FwdBwdRatio), ftoa(fv.AvgFwdPktSize), ftoa(fv.FlowEfficiency),
		utoa(fv.TotalFlags), ftoa(fv.FlagDiversity),
		strconv.Itoa(int(fv.IsTCP)), strconv.Itoa(int(fv.IsUDP)), strconv.Itoa(int(fv.IsICMP)),
		strconv.Itoa(int(fv.SrcIsWellKnown)), strconv.Itoa(int(fv.DstIsWellKnown)),
		strconv.Itoa(int(fv.SrcIsCommon)), strconv.Itoa(int(fv.DstIsCommon)),
		fv.Label,
	}
}
