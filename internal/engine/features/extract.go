// Package features turns a flow snapshot into the statistical vector fed to
// the classifier and the output writers. Extraction never fails: every group
// degrades to zero when the flow has too few packets to support it.
package features

import (
	"sort"
	"time"

	"FlowSentry/internal/engine/flowtable"
	"FlowSentry/internal/model"
	"FlowSentry/internal/stats"
)

const (
	activeThreshold = 1 * time.Second
	idleThreshold   = 5 * time.Second

	timestampLayout = "2006-01-02 15:04:05.000"
)

// commonPorts is the service-port membership set behind the *_is_common
// indicator features.
var commonPorts = map[uint16]bool{
	20: true, 21: true, 22: true, 23: true, 25: true, 53: true,
	67: true, 68: true, 69: true, 80: true, 110: true, 119: true,
	123: true, 135: true, 139: true, 143: true, 161: true, 194: true,
	443: true, 993: true, 995: true,
}

// Extract computes the full feature vector for a flow snapshot. The caller
// supplies its notion of now, which anchors flow duration; tests pass fixed
// times.
func Extract(snap *flowtable.Snapshot, now time.Time) *model.FeatureVector {
	fv := &model.FeatureVector{
		SrcIP:     snap.SrcIP.String(),
		DstIP:     snap.DstIP.String(),
		SrcPort:   snap.SrcPort,
		DstPort:   snap.DstPort,
		Protocol:  snap.Protocol,
		Timestamp: now.Format(timestampLayout),
		Label:     snap.LastLabel,
	}

	fv.TotFwdPkts = uint32(len(snap.Fwd))
	fv.TotBwdPkts = uint32(len(snap.Bwd))
	fv.FlowDuration = now.Sub(snap.StartTime).Seconds()
	if fv.FlowDuration < 0 {
		fv.FlowDuration = 0
	}

	fwdLens := packetSizes(snap.Fwd)
	bwdLens := packetSizes(snap.Bwd)
	allLens := append(append(make([]float64, 0, len(fwdLens)+len(bwdLens)), fwdLens...), bwdLens...)

	fillLengthStats(fv, fwdLens, bwdLens, allLens)
	fillRates(fv)
	fillHeaders(fv, snap)
	fillIAT(fv, snap)
	if snap.Protocol == model.ProtoTCP {
		fillFlags(fv, snap)
	}

	fv.InitFwdWinByts = snap.InitFwdWin
	fv.InitBwdWinByts = snap.InitBwdWin

	fillBulk(fv)
	fillActiveIdle(fv, snap)

	// Subflow counters mirror the whole flow; there is no sub-segmentation.
	fv.SubflowFwdPkts = fv.TotFwdPkts
	fv.SubflowBwdPkts = fv.TotBwdPkts
	fv.SubflowFwdByts = fv.TotLenFwdPkts
	fv.SubflowBwdByts = fv.TotLenBwdPkts

	if fv.TotLenFwdPkts > 0 {
		fv.DownUpRatio = float64(fv.TotLenBwdPkts) / float64(fv.TotLenFwdPkts)
	}
	fillSegments(fv, snap)
	fillEngineered(fv)

	return fv
}

func packetSizes(obs []model.PacketObservation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = float64(o.Size)
	}
	return out
}

func fillLengthStats(fv *model.FeatureVector, fwd, bwd, all []float64) {
	if len(fwd) > 0 {
		d := stats.Describe(fwd)
		fv.FwdPktLenMax, fv.FwdPktLenMin = d.Max, d.Min
		fv.FwdPktLenMean, fv.FwdPktLenStd = d.Mean, d.Std
		fv.TotLenFwdPkts = uint32(stats.Sum(fwd))
	}
	if len(bwd) > 0 {
		d := stats.Describe(bwd)
		fv.BwdPktLenMax, fv.BwdPktLenMin = d.Max, d.Min
		fv.BwdPktLenMean, fv.BwdPktLenStd = d.Mean, d.Std
		fv.TotLenBwdPkts = uint32(stats.Sum(bwd))
	}
	if len(all) > 0 {
		d := stats.Describe(all)
		fv.PktLenMax, fv.PktLenMin = d.Max, d.Min
		fv.PktLenMean, fv.PktLenStd = d.Mean, d.Std
		fv.PktLenVar = d.Std * d.Std
		fv.PktSizeAvg = d.Mean
	}
}

func fillRates(fv *model.FeatureVector) {
	if fv.FlowDuration <= 0 {
		return
	}
	fv.FlowBytsPerS = float64(fv.TotLenFwdPkts+fv.TotLenBwdPkts) / fv.FlowDuration
	fv.FlowPktsPerS = float64(fv.TotFwdPkts+fv.TotBwdPkts) / fv.FlowDuration
	fv.FwdPktsPerS = float64(fv.TotFwdPkts) / fv.FlowDuration
	fv.BwdPktsPerS = float64(fv.TotBwdPkts) / fv.FlowDuration
}

func fillHeaders(fv *model.FeatureVector, snap *flowtable.Snapshot) {
	for _, o := range snap.Fwd {
		fv.FwdHeaderLen += uint32(o.HeaderLen)
		if o.PayloadLen > 0 {
			fv.FwdActDataPkts++
		}
	}
	for _, o := range snap.Bwd {
		fv.BwdHeaderLen += uint32(o.HeaderLen)
	}
}

func interArrivals(obs []model.PacketObservation) []float64 {
	if len(obs) < 2 {
		return nil
	}
	out := make([]float64, 0, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		d := obs[i].Timestamp.Sub(obs[i-1].Timestamp).Seconds()
		if d >= 0 {
			out = append(out, d)
		}
	}
	return out
}

// sortedTimestamps merges both directions in chronological order.
func sortedTimestamps(snap *flowtable.Snapshot) []time.Time {
	ts := make([]time.Time, 0, len(snap.Fwd)+len(snap.Bwd))
	for _, o := range snap.Fwd {
		ts = append(ts, o.Timestamp)
	}
	for _, o := range snap.Bwd {
		ts = append(ts, o.Timestamp)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
	return ts
}

func fillIAT(fv *model.FeatureVector, snap *flowtable.Snapshot) {
	if iats := interArrivals(snap.Fwd); len(iats) > 0 {
		d := stats.Describe(iats)
		fv.FwdIATTot = stats.Sum(iats)
		fv.FwdIATMax, fv.FwdIATMin = d.Max, d.Min
		fv.FwdIATMean, fv.FwdIATStd = d.Mean, d.Std
	}
	if iats := interArrivals(snap.Bwd); len(iats) > 0 {
		d := stats.Describe(iats)
		fv.BwdIATTot = stats.Sum(iats)
		fv.BwdIATMax, fv.BwdIATMin = d.Max, d.Min
		fv.BwdIATMean, fv.BwdIATStd = d.Mean, d.Std
	}

	ts := sortedTimestamps(snap)
	if len(ts) < 2 {
		return
	}
	iats := make([]float64, 0, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		iats = append(iats, ts[i].Sub(ts[i-1]).Seconds())
	}
	d := stats.Describe(iats)
	fv.FlowIATMax, fv.FlowIATMin = d.Max, d.Min
	fv.FlowIATMean, fv.FlowIATStd = d.Mean, d.Std
}

func fillFlags(fv *model.FeatureVector, snap *flowtable.Snapshot) {
	count := func(obs []model.PacketObservation, psh, urg *uint32) {
		for _, o := range obs {
			if !o.HasFlags {
				continue
			}
			f := o.TCPFlags
			if f&model.FlagFIN != 0 {
				fv.FINFlagCnt++
			}
			if f&model.FlagSYN != 0 {
				fv.SYNFlagCnt++
			}
			if f&model.FlagRST != 0 {
				fv.RSTFlagCnt++
			}
			if f&model.FlagPSH != 0 {
				fv.PSHFlagCnt++
				*psh++
			}
			if f&model.FlagACK != 0 {
				fv.ACKFlagCnt++
			}
			if f&model.FlagURG != 0 {
				fv.URGFlagCnt++
				*urg++
			}
			if f&model.FlagECE != 0 {
				fv.ECEFlagCnt++
			}
			if f&model.FlagCWR != 0 {
				fv.CWRFlagCnt++
			}
		}
	}
	count(snap.Fwd, &fv.FwdPSHFlags, &fv.FwdURGFlags)
	count(snap.Bwd, &fv.BwdPSHFlags, &fv.BwdURGFlags)
}

func fillBulk(fv *model.FeatureVector) {
	if fv.TotFwdPkts > 0 {
		fv.FwdBytsBAvg = float64(fv.TotLenFwdPkts) / float64(fv.TotFwdPkts)
		fv.FwdPktsBAvg = float64(fv.TotFwdPkts)
		fv.FwdBlkRateAvg = fv.FwdBytsBAvg / maxf(fv.FlowDuration, 1)
	}
	if fv.TotBwdPkts > 0 {
		fv.BwdBytsBAvg = float64(fv.TotLenBwdPkts) / float64(fv.TotBwdPkts)
		fv.BwdPktsBAvg = float64(fv.TotBwdPkts)
		fv.BwdBlkRateAvg = fv.BwdBytsBAvg / maxf(fv.FlowDuration, 1)
	}
}

func fillActiveIdle(fv *model.FeatureVector, snap *flowtable.Snapshot) {
	ts := sortedTimestamps(snap)
	if len(ts) < 2 {
		return
	}

	var active, idle []float64
	segStart, segEnd := ts[0], ts[0]
	for i := 1; i < len(ts); i++ {
		gap := ts[i].Sub(segEnd)
		if gap <= activeThreshold {
			segEnd = ts[i]
			continue
		}
		if segEnd.After(segStart) {
			active = append(active, segEnd.Sub(segStart).Seconds())
		}
		if gap > idleThreshold {
			idle = append(idle, gap.Seconds())
		}
		segStart, segEnd = ts[i], ts[i]
	}
	if segEnd.After(segStart) {
		active = append(active, segEnd.Sub(segStart).Seconds())
	}

	if len(active) > 0 {
		d := stats.Describe(active)
		fv.ActiveMax, fv.ActiveMin = d.Max, d.Min
		fv.ActiveMean, fv.ActiveStd = d.Mean, d.Std
	}
	if len(idle) > 0 {
		d := stats.Describe(idle)
		fv.IdleMax, fv.IdleMin = d.Max, d.Min
		fv.IdleMean, fv.IdleStd = d.Mean, d.Std
	}
}

func fillSegments(fv *model.FeatureVector, snap *flowtable.Snapshot) {
	if fv.TotFwdPkts > 0 {
		fv.FwdSegSizeAvg = float64(fv.TotLenFwdPkts) / float64(fv.TotFwdPkts)
		min := uint32(0)
		for _, o := range snap.Fwd {
			if o.PayloadLen <= 0 {
				continue
			}
			if p := uint32(o.PayloadLen); min == 0 || p < min {
				min = p
			}
		}
		fv.FwdSegSizeMin = min
	}
	if fv.TotBwdPkts > 0 {
		fv.BwdSegSizeAvg = float64(fv.TotLenBwdPkts) / float64(fv.TotBwdPkts)
	}
}

func fillEngineered(fv *model.FeatureVector) {
	if fv.TotBwdPkts > 0 {
		fv.FwdBwdRatio = float64(fv.TotFwdPkts) / float64(fv.TotBwdPkts)
	} else {
		fv.FwdBwdRatio = float64(fv.TotFwdPkts)
	}
	if fv.TotFwdPkts > 0 {
		fv.AvgFwdPktSize = float64(fv.TotLenFwdPkts) / float64(fv.TotFwdPkts)
	}
	if total := fv.TotFwdPkts + fv.TotBwdPkts; total > 0 {
		fv.FlowEfficiency = float64(fv.TotLenFwdPkts+fv.TotLenBwdPkts) / float64(total)
	}

	flagCounts := []uint32{
		fv.FINFlagCnt, fv.SYNFlagCnt, fv.RSTFlagCnt, fv.PSHFlagCnt,
		fv.ACKFlagCnt, fv.URGFlagCnt, fv.ECEFlagCnt, fv.CWRFlagCnt,
	}
	for _, c := range flagCounts {
		fv.TotalFlags += c
		if c > 0 {
			fv.FlagDiversity++
		}
	}

	fv.IsTCP = boolBit(fv.Protocol == model.ProtoTCP)
	fv.IsUDP = boolBit(fv.Protocol == model.ProtoUDP)
	fv.IsICMP = boolBit(fv.Protocol == model.ProtoICMP)
	fv.SrcIsWellKnown = boolBit(fv.SrcPort <= 1023)
	fv.DstIsWellKnown = boolBit(fv.DstPort <= 1023)
	fv.SrcIsCommon = boolBit(commonPorts[fv.SrcPort])
	fv.DstIsCommon = boolBit(commonPorts[fv.DstPort])
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
