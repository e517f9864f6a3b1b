package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/smartystreets/goconvey/convey"
)

type countingObserver struct{ hits, misses int }

func (o *countingObserver) CacheHit()  { o.hits++ }
func (o *countingObserver) CacheMiss() { o.misses++ }

type memoryBus struct {
	mu        sync.Mutex
	published [][]Key
	listener  func([]Key)
	failWith  error
}

func (b *memoryBus) Publish(_ context.Context, keys []Key) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, keys)
	return b.failWith
}

func (b *memoryBus) Listen(fn func([]Key)) (func(), error) {
	b.listener = fn
	return func() { b.listener = nil }, nil
}

func TestKeyMatches(t *testing.T) {
	Convey("Given an invalidation prefix", t, func() {
		prefix := Key("/players")

		Convey("It matches itself, sub-paths and query variants", func() {
			So(Key("/players").Matches(prefix), ShouldBeTrue)
			So(Key("/players/42").Matches(prefix), ShouldBeTrue)
			So(Key("/players?page=2").Matches(prefix), ShouldBeTrue)
		})

		Convey("It does not match siblings sharing a string prefix", func() {
			So(Key("/players-archive").Matches(prefix), ShouldBeFalse)
			So(Key("/teams").Matches(prefix), ShouldBeFalse)
		})
	})
}

func TestFetch(t *testing.T) {
	Convey("Given a cache with a fake clock", t, func() {
		clock := clockwork.NewFakeClock()
		obs := &countingObserver{}
		c := New(WithClock(clock), WithMaxAge(time.Minute), WithObserver(obs))
		ctx := context.Background()
		calls := 0
		fetch := func(context.Context) ([]string, error) {
			calls++
			return []string{"a", "b"}, nil
		}

		Convey("A second fetch within max age is served from cache", func() {
			first, err := Fetch(ctx, c, "/teams", fetch)
			So(err, ShouldBeNil)
			second, err := Fetch(ctx, c, "/teams", fetch)
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
			So(calls, ShouldEqual, 1)
			So(obs.hits, ShouldEqual, 1)
			So(obs.misses, ShouldEqual, 1)
		})

		Convey("An entry older than max age is refetched", func() {
			Fetch(ctx, c, "/teams", fetch)
			clock.Advance(time.Minute)
			Fetch(ctx, c, "/teams", fetch)
			So(calls, ShouldEqual, 2)
		})

		Convey("Errors are returned and not cached", func() {
			boom := errors.New("db down")
			_, err := Fetch(ctx, c, "/teams", func(context.Context) ([]string, error) { return nil, boom })
			So(err, ShouldEqual, boom)
			So(c.Len(), ShouldEqual, 0)
		})

		Convey("Invalidation drops matching entries only", func() {
			Fetch(ctx, c, "/teams", fetch)
			Fetch(ctx, c, "/teams/1", fetch)
			Fetch(ctx, c, "/events", fetch)
			c.Invalidate(ctx, "/teams")
			So(c.Len(), ShouldEqual, 1)
		})
	})
}

func TestFetch_DropsResultFetchedAcrossInvalidation(t *testing.T) {
	Convey("Given a fetch that is in flight when an invalidation lands", t, func() {
		c := New()
		ctx := context.Background()

		_, err := Fetch(ctx, c, "/teams", func(context.Context) (int, error) {
			c.Invalidate(ctx, "/teams")
			return 1, nil
		})

		Convey("The stale result is not stored", func() {
			So(err, ShouldBeNil)
			So(c.Len(), ShouldEqual, 0)
		})
	})
}

func TestFetch_SharesConcurrentCalls(t *testing.T) {
	Convey("Given many concurrent fetches of one key", t, func() {
		c := New()
		var calls atomic.Int32
		release := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				Fetch(context.Background(), c, "/players", func(context.Context) (int, error) {
					calls.Add(1)
					<-release
					return 7, nil
				})
			}()
		}
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		Convey("The loader runs far fewer times than there were callers", func() {
			So(calls.Load(), ShouldBeLessThan, 8)
		})
	})
}

func TestFetch_AfterInvalidationDoesNotJoinEarlierFlight(t *testing.T) {
	Convey("Given a fetch blocked in flight with the pre-invalidation rows", t, func() {
		c := New()
		ctx := context.Background()
		entered := make(chan struct{})
		release := make(chan struct{})
		before := make(chan []string, 1)
		go func() {
			rows, _ := Fetch(ctx, c, "/players", func(context.Context) ([]string, error) {
				close(entered)
				<-release
				return []string{"p1", "p2"}, nil
			})
			before <- rows
		}()
		<-entered

		Convey("A fetch after the invalidation runs its own loader and is kept", func() {
			c.Invalidate(ctx, "/players")
			done := make(chan []string, 1)
			go func() {
				rows, _ := Fetch(ctx, c, "/players", func(context.Context) ([]string, error) {
					return []string{"p2"}, nil
				})
				done <- rows
			}()

			var after []string
			select {
			case after = <-done:
			case <-time.After(2 * time.Second):
			}
			close(release)
			So(after, ShouldResemble, []string{"p2"})
			So(<-before, ShouldResemble, []string{"p1", "p2"})

			cached, err := Fetch(ctx, c, "/players", func(context.Context) ([]string, error) {
				return nil, errors.New("should be served from cache")
			})
			So(err, ShouldBeNil)
			So(cached, ShouldResemble, []string{"p2"})
		})
	})
}

func TestSubscribe(t *testing.T) {
	Convey("Given subscribers on several keys", t, func() {
		bus := &memoryBus{}
		c := New(WithBus(bus))
		ctx := context.Background()
		var order []string

		cancelList := c.Subscribe("/players?sort=name", func() { order = append(order, "list") })
		c.Subscribe("/players/42", func() { order = append(order, "detail") })
		c.Subscribe("/teams", func() { order = append(order, "teams") })

		Convey("A matching invalidation runs each subscriber once, in order", func() {
			c.Invalidate(ctx, "/players", "/players/42")
			So(order, ShouldResemble, []string{"list", "detail"})
			So(bus.published, ShouldResemble, [][]Key{{"/players", "/players/42"}})
		})

		Convey("A cancelled subscriber is not called", func() {
			cancelList()
			cancelList()
			c.Invalidate(ctx, "/players")
			So(order, ShouldResemble, []string{"detail"})
		})

		Convey("A publish failure does not stop local invalidation", func() {
			bus.failWith = errors.New("nats down")
			c.Invalidate(ctx, "/teams")
			So(order, ShouldResemble, []string{"teams"})
		})
	})
}

func TestListen(t *testing.T) {
	Convey("Given a cache listening on a bus", t, func() {
		bus := &memoryBus{}
		c := New(WithBus(bus))
		So(c.Listen(), ShouldBeNil)
		Fetch(context.Background(), c, "/events", func(context.Context) (int, error) { return 1, nil })
		called := false
		c.Subscribe("/events", func() { called = true })

		Convey("Remote keys invalidate locally without republishing", func() {
			bus.listener([]Key{"/events"})
			So(called, ShouldBeTrue)
			So(c.Len(), ShouldEqual, 0)
			So(bus.published, ShouldBeEmpty)
		})

		Convey("Close stops listening", func() {
			c.Close()
			So(bus.listener, ShouldBeNil)
		})
	})
}
