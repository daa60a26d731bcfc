package schedule

import "fmt"

// Unset is the sentinel stored in an Offset slot before it has a
// transmission or ending time assigned.
const Unset int64 = -1

// Offset holds the per-instance, per-replica transmission and ending times
// of one frame on one link, in nanoseconds. Replicas are redundant copies of
// the same instance on the same link; current schedules typically carry
// zero replicas (§3, GLOSSARY).
type Offset struct {
	numInstances int
	numReplicas  int
	transmission [][]int64
	ending       [][]int64
}

// NewOffset returns an Offset with no instances prepared yet.
func NewOffset() *Offset {
	return &Offset{}
}

// NumInstances returns the number of instances this offset has been
// prepared for.
func (o *Offset) NumInstances() int { return o.numInstances }

// Prepare allocates the instance/replica matrices. Calling Prepare again
// after the matrices already hold data is a no-op, matching the "prepare
// once" behavior relied on by repeated path installs.
func (o *Offset) Prepare(numInstances, numReplicas int) error {
	if numInstances <= 0 {
		return fmt.Errorf("schedule: number of instances must be positive, got %d", numInstances)
	}
	if numReplicas < 0 {
		return fmt.Errorf("schedule: number of replicas must be non-negative, got %d", numReplicas)
	}
	if o.transmission != nil {
		return nil
	}
	o.numInstances = numInstances
	o.numReplicas = numReplicas
	o.transmission = make([][]int64, numInstances)
	o.ending = make([][]int64, numInstances)
	for i := range o.transmission {
		o.transmission[i] = make([]int64, numReplicas+1)
		o.ending[i] = make([]int64, numReplicas+1)
		for r := range o.transmission[i] {
			o.transmission[i][r] = Unset
			o.ending[i][r] = Unset
		}
	}
	return nil
}

func (o *Offset) checkBounds(instance, replica int) error {
	if instance < 0 || instance >= o.numInstances {
		return fmt.Errorf("schedule: instance %d out of range [0, %d)", instance, o.numInstances)
	}
	if replica < 0 || replica > o.numReplicas {
		return fmt.Errorf("schedule: replica %d out of range [0, %d]", replica, o.numReplicas)
	}
	return nil
}

// TransmissionTime returns the transmission time of the given instance and
// replica, or Unset if never assigned.
func (o *Offset) TransmissionTime(instance, replica int) (int64, error) {
	if err := o.checkBounds(instance, replica); err != nil {
		return 0, err
	}
	return o.transmission[instance][replica], nil
}

// SetTransmissionTime assigns the transmission time for (instance, replica).
// An already-set value may only be overwritten with an identical value
// (§3): this is what lets two hops of the same repair independently install
// the same offset without clobbering each other.
func (o *Offset) SetTransmissionTime(instance, replica int, time int64) error {
	if err := o.checkBounds(instance, replica); err != nil {
		return err
	}
	cur := o.transmission[instance][replica]
	if cur != Unset && cur != time {
		return fmt.Errorf("%w: transmission time for instance %d replica %d already %d, cannot set to %d",
			ErrAlreadySet, instance, replica, cur, time)
	}
	o.transmission[instance][replica] = time
	return nil
}

// EndingTime returns the ending time of the given instance and replica, or
// Unset if never assigned.
func (o *Offset) EndingTime(instance, replica int) (int64, error) {
	if err := o.checkBounds(instance, replica); err != nil {
		return 0, err
	}
	return o.ending[instance][replica], nil
}

// SetEndingTime assigns the ending time for (instance, replica), subject to
// the same overwrite-only-if-identical rule as SetTransmissionTime.
func (o *Offset) SetEndingTime(instance, replica int, time int64) error {
	if err := o.checkBounds(instance, replica); err != nil {
		return err
	}
	cur := o.ending[instance][replica]
	if cur != Unset && cur != time {
		return fmt.Errorf("%w: ending time for instance %d replica %d already %d, cannot set to %d",
			ErrAlreadySet, instance, replica, cur, time)
	}
	o.ending[instance][replica] = time
	return nil
}

// Complete reports whether every instance (replica 0) has both a
// transmission and an ending time assigned and ending > transmission,
// the completeness invariant checked in §8.
func (o *Offset) Complete() bool {
	if o.numInstances == 0 {
		return false
	}
	for i := 0; i < o.numInstances; i++ {
		t := o.transmission[i][0]
		e := o.ending[i][0]
		if t == Unset || e == Unset || e <= t {
			return false
		}
	}
	return true
}
