package services

import (
	"fmt"

	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
)

// recordIndex is the part of the store the navigator reads its sequences from.
type recordIndex interface {
	ListIDs() ([]int64, error)
	ListDates() ([]models.DateEntry, error)
}

// navHost is implemented by the service that owns the form.
type navHost interface {
	loadRecord(id int64) error
	insertRecord() (int64, error)
	saveCurrent() error
}

// Navigator keeps a cursor over the ordered record ids. It is driven from a single
// goroutine.
type Navigator struct {
	index   recordIndex
	host    navHost
	guard   *DirtyGuard
	display Display

	ids    []int64
	dates  []models.DateEntry
	cursor int
}

func NewNavigator(index recordIndex, host navHost, guard *DirtyGuard, display Display) *Navigator {
	return &Navigator{index: index, host: host, guard: guard, display: display, cursor: -1}
}

// Refresh re-reads the id and date sequences. The cursor follows its record when it
// still exists and is unset otherwise.
func (n *Navigator) Refresh() error {
	ids, err := n.index.ListIDs()
	if err != nil {
		return err
	}
	dates, err := n.index.ListDates()
	if err != nil {
		return err
	}
	current := n.CurrentID()
	n.ids, n.dates = ids, dates
	n.cursor = n.indexOf(current)
	return nil
}

// CurrentID returns the id under the cursor, or 0 when unset.
func (n *Navigator) CurrentID() int64 {
	if n.cursor < 0 || n.cursor >= len(n.ids) {
		return 0
	}
	return n.ids[n.cursor]
}

func (n *Navigator) IDs() []int64 {
	return append([]int64(nil), n.ids...)
}

func (n *Navigator) Dates() []models.DateEntry {
	return append([]models.DateEntry(nil), n.dates...)
}

func (n *Navigator) State() NavState {
	return NavState{
		HasPrev:  n.cursor > 0,
		HasNext:  n.cursor >= 0 && n.cursor < len(n.ids)-1,
		Position: n.cursor,
		Count:    len(n.ids),
	}
}

func (n *Navigator) indexOf(id int64) int {
	for i, v := range n.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// First moves to the lowest id. It does nothing on an empty store.
func (n *Navigator) First() error {
	if len(n.ids) == 0 {
		return nil
	}
	return n.gatedMove(0)
}

// Previous moves one record back. At the first record it returns models.ErrAtBoundary.
func (n *Navigator) Previous() error {
	if n.cursor <= 0 {
		return models.ErrAtBoundary
	}
	return n.gatedMove(n.cursor - 1)
}

// Next moves one record forward. At the last record it returns models.ErrAtBoundary.
func (n *Navigator) Next() error {
	if n.cursor < 0 || n.cursor >= len(n.ids)-1 {
		return models.ErrAtBoundary
	}
	return n.gatedMove(n.cursor + 1)
}

// Last moves to the highest id. On an empty store it creates the first record instead.
func (n *Navigator) Last() error {
	if len(n.ids) == 0 {
		if err := n.guard.ConfirmOrAbort(n.host.saveCurrent); err != nil {
			return err
		}
		id, err := n.host.insertRecord()
		if err != nil {
			return err
		}
		return n.ShowNew(id)
	}
	return n.gatedMove(len(n.ids) - 1)
}

// GoTo moves to the record with the given id.
func (n *Navigator) GoTo(id int64) error {
	i := n.indexOf(id)
	if i < 0 {
		logger.L.Warn("Navigation to unknown record", "id", id)
		return fmt.Errorf("%w: id %d", models.ErrNotFound, id)
	}
	return n.gatedMove(i)
}

// GoToDate moves to the first record (in id order) carrying the given date.
func (n *Navigator) GoToDate(date string) error {
	for _, e := range n.dates {
		if e.Date == date {
			return n.GoTo(e.ID)
		}
	}
	logger.L.Warn("Navigation to unknown date", "date", date)
	return fmt.Errorf("%w: date %s", models.ErrNotFound, date)
}

// ShowNew refreshes the sequences and loads a record just inserted by the host,
// without consulting the guard again.
func (n *Navigator) ShowNew(id int64) error {
	if err := n.Refresh(); err != nil {
		return err
	}
	i := n.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: id %d", models.ErrNotFound, id)
	}
	return n.move(i)
}

func (n *Navigator) gatedMove(i int) error {
	if err := n.guard.ConfirmOrAbort(n.host.saveCurrent); err != nil {
		return err
	}
	return n.move(i)
}

// move loads the record at position i. The cursor only changes once the load worked.
func (n *Navigator) move(i int) error {
	id := n.ids[i]
	if err := n.host.loadRecord(id); err != nil {
		logger.L.Error("Failed to load record", "id", id, "error", err)
		return err
	}
	n.cursor = i
	n.guard.MarkClean()
	n.display.ShowNavState(n.State())
	return nil
}
