// Package oracle keeps a fixed-size ring of accumulated log price square
// roots and answers time-weighted average queries over it.
package oracle

import (
	"flexPool/internal/fixedpoint"
	"flexPool/internal/txn"
)

// DefaultCapacity is the ring size used by pools unless configured otherwise.
const DefaultCapacity uint16 = 65535

// AccumulatedObservation is the running sum of ln(price_sqrt) * seconds up to Timestamp.
type AccumulatedObservation struct {
	Timestamp   uint64                    `json:"timestamp"`
	Accumulator fixedpoint.PreciseDecimal `json:"accumulator"`
}

// ObservationInterval is the geometric mean price square root over [Start, End].
type ObservationInterval struct {
	Start     uint64                    `json:"start"`
	End       uint64                    `json:"end"`
	PriceSqrt fixedpoint.PreciseDecimal `json:"price_sqrt"`
}

type slotWrite struct {
	index    int
	previous AccumulatedObservation
	appended bool
}

// Oracle is not safe for concurrent use; the pool serializes access.
type Oracle struct {
	capacity     uint16
	observations []AccumulatedObservation
	count        uint64

	seeded      bool
	lastUpdate  uint64
	lastPrice   fixedpoint.PreciseDecimal
	accumulator fixedpoint.PreciseDecimal

	openSavepoints int
	journal        []slotWrite
}

func New(capacity uint16) (*Oracle, error) {
	if capacity == 0 {
		return nil, ErrInvalidCapacity
	}
	return &Oracle{capacity: capacity}, nil
}

// Observe records priceSqrt as the price in effect from now on. The first
// call only seeds the price. Calls at an unchanged timestamp replace the
// pending price without storing anything.
func (o *Oracle) Observe(now uint64, priceSqrt fixedpoint.PreciseDecimal) error {
	if !priceSqrt.IsPositive() {
		return ErrInvalidPrice.Wrapf("%s", priceSqrt)
	}
	if !o.seeded {
		o.seeded = true
		o.lastUpdate = now
		o.lastPrice = priceSqrt
		return nil
	}
	if now < o.lastUpdate {
		return ErrClockRegression.Wrapf("now %d, last observation %d", now, o.lastUpdate)
	}
	if now == o.lastUpdate {
		o.lastPrice = priceSqrt
		return nil
	}

	o.accumulator = o.accumulate(o.accumulator, now-o.lastUpdate)
	o.store(AccumulatedObservation{Timestamp: now, Accumulator: o.accumulator})
	o.lastUpdate = now
	o.lastPrice = priceSqrt
	return nil
}

func (o *Oracle) accumulate(acc fixedpoint.PreciseDecimal, elapsed uint64) fixedpoint.PreciseDecimal {
	return acc.Add(o.lastPrice.Ln(fixedpoint.ToZero).MulInt(int64(elapsed)))
}

func (o *Oracle) store(obs AccumulatedObservation) {
	index := int(o.count % uint64(o.capacity))
	write := slotWrite{index: index}
	if index == len(o.observations) {
		o.observations = append(o.observations, obs)
		write.appended = true
	} else {
		write.previous = o.observations[index]
		o.observations[index] = obs
	}
	if o.openSavepoints > 0 {
		o.journal = append(o.journal, write)
	}
	o.count++
}

// Observation returns the accumulator at timestamp. now bounds extrapolation
// past the newest stored entry.
func (o *Oracle) Observation(now, timestamp uint64) (AccumulatedObservation, error) {
	n := o.stored()
	if n == 0 {
		return AccumulatedObservation{}, ErrObservationOutOfRange.Wrapf("no observations stored")
	}
	oldest := o.at(0)
	newest := o.at(n - 1)
	if timestamp < oldest.Timestamp || timestamp > now {
		return AccumulatedObservation{}, ErrObservationOutOfRange.Wrapf(
			"%d not in [%d, %d]", timestamp, oldest.Timestamp, now)
	}

	if timestamp >= newest.Timestamp {
		if timestamp == newest.Timestamp {
			return newest, nil
		}
		return AccumulatedObservation{
			Timestamp:   timestamp,
			Accumulator: o.accumulate(newest.Accumulator, timestamp-newest.Timestamp),
		}, nil
	}

	// largest i with at(i).Timestamp <= timestamp
	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if o.at(mid).Timestamp <= timestamp {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	left := o.at(lo)
	if left.Timestamp == timestamp {
		return left, nil
	}
	right := o.at(lo + 1)

	span := fixedpoint.NewPreciseFromInt(int64(right.Timestamp - left.Timestamp))
	delta := right.Accumulator.Sub(left.Accumulator).
		MulInt(int64(timestamp - left.Timestamp)).
		Quo(span, fixedpoint.ToZero)
	return AccumulatedObservation{
		Timestamp:   timestamp,
		Accumulator: left.Accumulator.Add(delta),
	}, nil
}

// ObservationIntervals returns the mean price square root for each (start, end) pair.
func (o *Oracle) ObservationIntervals(now uint64, intervals [][2]uint64) ([]ObservationInterval, error) {
	out := make([]ObservationInterval, 0, len(intervals))
	for _, iv := range intervals {
		start, end := iv[0], iv[1]
		if end <= start {
			return nil, ErrInvalidInterval.Wrapf("(%d, %d)", start, end)
		}
		first, err := o.Observation(now, start)
		if err != nil {
			return nil, err
		}
		last, err := o.Observation(now, end)
		if err != nil {
			return nil, err
		}
		mean := last.Accumulator.Sub(first.Accumulator).
			Quo(fixedpoint.NewPreciseFromInt(int64(end-start)), fixedpoint.ToZero)
		out = append(out, ObservationInterval{
			Start:     start,
			End:       end,
			PriceSqrt: mean.Exp(fixedpoint.ToZero),
		})
	}
	return out, nil
}

func (o *Oracle) Limit() uint16 {
	return o.capacity
}

// Count is the number of observations currently held, at most Limit.
func (o *Oracle) Count() uint16 {
	return uint16(o.stored())
}

func (o *Oracle) OldestTimestamp() (uint64, bool) {
	if o.stored() == 0 {
		return 0, false
	}
	return o.at(0).Timestamp, true
}

func (o *Oracle) LastIndex() (uint16, bool) {
	if o.count == 0 {
		return 0, false
	}
	return uint16((o.count - 1) % uint64(o.capacity)), true
}

// LastPrice is the pending price square root, if any was observed.
func (o *Oracle) LastPrice() (fixedpoint.PreciseDecimal, bool) {
	return o.lastPrice, o.seeded
}

func (o *Oracle) stored() int {
	if o.count < uint64(o.capacity) {
		return int(o.count)
	}
	return int(o.capacity)
}

// at maps a logical position (0 = oldest) to its ring slot.
func (o *Oracle) at(i int) AccumulatedObservation {
	start := 0
	if o.count >= uint64(o.capacity) {
		start = int(o.count % uint64(o.capacity))
	}
	return o.observations[(start+i)%int(o.capacity)]
}

// Savepoint journals ring writes until released so they can be undone.
func (o *Oracle) Savepoint() txn.Savepoint {
	mark := len(o.journal)
	count := o.count
	seeded, lastUpdate, lastPrice, acc := o.seeded, o.lastUpdate, o.lastPrice, o.accumulator
	o.openSavepoints++

	return txn.New(
		func() {
			for i := len(o.journal) - 1; i >= mark; i-- {
				w := o.journal[i]
				if w.appended {
					o.observations = o.observations[:w.index]
				} else {
					o.observations[w.index] = w.previous
				}
			}
			o.journal = o.journal[:mark]
			o.count = count
			o.seeded, o.lastUpdate, o.lastPrice, o.accumulator = seeded, lastUpdate, lastPrice, acc
			o.close()
		},
		o.close,
	)
}

func (o *Oracle) close() {
	o.openSavepoints--
	if o.openSavepoints == 0 {
		o.journal = o.journal[:0]
	}
}
