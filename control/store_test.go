package control

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/colorblob/vision/blob"
)

func TestStoreSnapshotIsACopy(t *testing.T) {
	store := NewStore(DefaultParams())
	snap := store.Snapshot()
	snap.Thresholds.YLow = 99
	snap.Camera.Rotation = 180
	test.That(t, store.Snapshot(), test.ShouldResemble, DefaultParams())
}

func TestStoreUpdate(t *testing.T) {
	store := NewStore(DefaultParams())
	test.That(t, store.Update(func(p *Params) error {
		p.TestImageEnable = true
		return nil
	}), test.ShouldBeNil)
	test.That(t, store.Snapshot().TestImageEnable, test.ShouldBeTrue)

	boom := errors.New("boom")
	err := store.Update(func(p *Params) error {
		p.TestImageEnable = false
		p.DetectEnable = false
		return boom
	})
	test.That(t, err, test.ShouldEqual, boom)
	test.That(t, store.Snapshot().TestImageEnable, test.ShouldBeTrue)
	test.That(t, store.Snapshot().DetectEnable, test.ShouldBeTrue)

	store.Set(Params{})
	test.That(t, store.Snapshot(), test.ShouldResemble, Params{})
}

func TestParamsDetectParams(t *testing.T) {
	p := DefaultParams()
	p.Thresholds = blob.Thresholds{YLow: 1, YHigh: 2, ULow: 3, UHigh: 4, VLow: 5, VHigh: 6}
	p.MergeRowsEnable = false
	test.That(t, p.DetectParams(12), test.ShouldResemble, blob.DetectParams{
		Thresholds: p.Thresholds,
		MinArea:    12,
	})
}

// Readers must only ever see thresholds from a single complete update.
func TestStoreConcurrentSnapshots(t *testing.T) {
	store := NewStore(DefaultParams())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			v := uint8(i)
			_, err := store.Handle(EncodeThresholds(blob.Thresholds{
				YLow: v, YHigh: v, ULow: v, UHigh: v, VLow: v, VHigh: v,
			}))
			if err != nil {
				t.Error(err)
				return
			}
		}
	}()
	torn := 0
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			th := store.Snapshot().Thresholds
			if th.YLow != th.VHigh && th != blob.MatchAll {
				torn++
			}
		}
	}()
	wg.Wait()
	test.That(t, torn, test.ShouldEqual, 0)
}
