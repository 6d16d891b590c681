package resource

import (
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnHandleEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	// Insert
	h := table.Insert("com/example/Sample", "test")
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	// Get
	val, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	// GetTyped with correct class
	if _, ok = table.GetTyped(h, "com/example/Sample"); !ok {
		t.Fatal("GetTyped with correct class failed")
	}

	// GetTyped with wrong class
	if _, ok = table.GetTyped(h, "com/example/Person"); ok {
		t.Fatal("GetTyped with wrong class should fail")
	}

	// Remove
	val, ok = table.Remove(h)
	if !ok {
		t.Fatal("Remove failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	// Double remove is a no-op
	if _, ok = table.Remove(h); ok {
		t.Fatal("Second Remove should fail")
	}

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	// Insert should trigger EventCreated
	h := table.Insert("c", "test")
	if len(obs.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(obs.events))
	}
	if obs.events[0].Type != EventCreated {
		t.Fatal("Expected EventCreated")
	}
	if obs.events[0].Handle != h || obs.events[0].Class != "c" {
		t.Fatal("Wrong handle or class in event")
	}

	// Remove should trigger EventDisposed
	table.Remove(h)
	if len(obs.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(obs.events))
	}
	if obs.events[1].Type != EventDisposed {
		t.Fatal("Expected EventDisposed")
	}

	// A failed remove does not notify
	table.Remove(h)
	if len(obs.events) != 2 {
		t.Fatal("Failed Remove should not notify")
	}

	// Unsubscribe
	table.Unsubscribe(obs)
	table.Insert("c", "test2")
	if len(obs.events) != 2 {
		t.Fatal("Should not receive events after Unsubscribe")
	}
}

func TestTable_ObserverFunc(t *testing.T) {
	table := NewTable()
	var types []EventType
	table.Subscribe(ObserverFunc(func(e Event) { types = append(types, e.Type) }))

	table.Remove(table.Insert("c", 1))

	if len(types) != 2 || types[0] != EventCreated || types[1] != EventDisposed {
		t.Fatalf("Unexpected events %v", types)
	}
	if EventDisposed.String() != "disposed" {
		t.Fatalf("Unexpected event name %q", EventDisposed.String())
	}
}

func TestTable_Clear(t *testing.T) {
	table := NewTable()

	table.Insert("c", "a")
	table.Insert("c", "b")
	table.Insert("c", "c")

	if table.Len() != 3 {
		t.Fatal("Expected Len() == 3")
	}

	table.Clear()

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Clear")
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)
	d := &disposeCounter{}

	table.Insert("c", "a")
	table.Insert("c", d)

	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var disposed int
	for _, e := range obs.events {
		if e.Type == EventDisposed {
			disposed++
		}
	}
	if disposed != 2 {
		t.Errorf("Expected 2 disposed events on Close, got %d", disposed)
	}
	if d.count != 1 {
		t.Errorf("Expected Dispose() to be called once, called %d times", d.count)
	}
	if table.Len() != 0 {
		t.Errorf("Expected empty table after Close, got %d", table.Len())
	}

	// Insert should fail after Close
	h := table.Insert("c", "c")
	if h != 0 {
		t.Fatal("Expected Insert to fail after Close")
	}
}

type disposeCounter struct {
	count int
}

func (d *disposeCounter) Dispose() {
	d.count++
}

func TestTable_DisposerInterface(t *testing.T) {
	table := NewTable()
	d := &disposeCounter{}

	h := table.Insert("c", d)
	table.Remove(h)
	table.Remove(h)

	if d.count != 1 {
		t.Fatalf("Expected Dispose() to be called once, called %d times", d.count)
	}
}
