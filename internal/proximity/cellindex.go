package proximity

import (
	"context"
	"slices"
	"sync"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/google/uuid"

	"github.com/shenikar/bantaybayan/internal/geo"
	"github.com/shenikar/bantaybayan/internal/models"
)

const (
	// DefaultCellLevel - ячейки уровня 13 имеют сторону около 1 км
	DefaultCellLevel = 13
	maxCoveringCells = 16
	// запас для покрытия, чтобы точка ровно на границе радиуса не потерялась
	coveringPaddingMeters = 1.0
)

type indexedReport struct {
	report *models.Report
	cell   s2.CellID
	seq    uint64
}

// CellIndex - индекс отчетов в памяти по ячейкам S2.
// Ячейки покрытия запроса дают кандидатов, итоговую фильтрацию делает Filter.
// Все операции защищены RWMutex: запрос видит отчет либо до, либо после изменения.
type CellIndex struct {
	mu    sync.RWMutex
	level int
	byID  map[uuid.UUID]*indexedReport
	cells map[s2.CellID][]*indexedReport
	keys  []s2.CellID // отсортированные непустые ячейки
	seq   uint64
}

func NewCellIndex(level int) *CellIndex {
	if level < 1 || level > s2.MaxLevel {
		level = DefaultCellLevel
	}
	return &CellIndex{
		level: level,
		byID:  make(map[uuid.UUID]*indexedReport),
		cells: make(map[s2.CellID][]*indexedReport),
	}
}

// Upsert добавляет или заменяет отчет. Порядок первой вставки сохраняется.
// Индекс хранит копию отчета.
func (idx *CellIndex) Upsert(report *models.Report) {
	snapshot := *report
	cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(report.Latitude, report.Longitude)).Parent(idx.level)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	seq := idx.seq
	if existing, ok := idx.byID[report.ID]; ok {
		seq = existing.seq
		idx.removeLocked(report.ID)
	} else {
		idx.seq++
	}
	idx.insertLocked(&indexedReport{report: &snapshot, cell: cell, seq: seq})
}

// Remove удаляет отчет из индекса, отсутствующий id игнорируется
func (idx *CellIndex) Remove(id uuid.UUID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
}

// Replace атомарно перестраивает индекс. Порядок слайса становится порядком обхода.
func (idx *CellIndex) Replace(reports []*models.Report) {
	byID := make(map[uuid.UUID]*indexedReport, len(reports))
	cells := make(map[s2.CellID][]*indexedReport)
	var seq uint64
	for _, report := range reports {
		snapshot := *report
		entry := &indexedReport{
			report: &snapshot,
			cell:   s2.CellIDFromLatLng(s2.LatLngFromDegrees(report.Latitude, report.Longitude)).Parent(idx.level),
			seq:    seq,
		}
		seq++
		if old, ok := byID[report.ID]; ok {
			cells[old.cell] = slices.DeleteFunc(cells[old.cell], func(e *indexedReport) bool { return e == old })
			entry.seq = old.seq
		}
		byID[report.ID] = entry
		cells[entry.cell] = append(cells[entry.cell], entry)
	}

	keys := make([]s2.CellID, 0, len(cells))
	for cell, entries := range cells {
		if len(entries) == 0 {
			delete(cells, cell)
			continue
		}
		keys = append(keys, cell)
	}
	slices.Sort(keys)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byID = byID
	idx.cells = cells
	idx.keys = keys
	idx.seq = seq
}

func (idx *CellIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byID)
}

func (idx *CellIndex) Nearby(_ context.Context, q Query) ([]Result, error) {
	angle := s1.Angle((q.RadiusMeters + coveringPaddingMeters) / geo.EarthRadiusMeters)
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(q.Latitude, q.Longitude))
	region := s2.CapFromCenterAngle(center, angle)

	coverer := &s2.RegionCoverer{MinLevel: 0, MaxLevel: idx.level, LevelMod: 1, MaxCells: maxCoveringCells}
	covering := coverer.Covering(region)

	idx.mu.RLock()
	entries := make([]*indexedReport, 0)
	for _, cell := range covering {
		entries = idx.collectLocked(cell, entries)
	}
	idx.mu.RUnlock()

	// порядок обхода = порядок вставки, как у ScanFinder над тем же хранилищем
	slices.SortFunc(entries, func(a, b *indexedReport) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})

	candidates := make([]*models.Report, len(entries))
	for i, e := range entries {
		candidates[i] = e.report
	}
	return Filter(q, candidates), nil
}

// collectLocked добавляет отчеты из всех ячеек уровня индекса внутри cell
func (idx *CellIndex) collectLocked(cell s2.CellID, dst []*indexedReport) []*indexedReport {
	if cell.Level() >= idx.level {
		return append(dst, idx.cells[cell.Parent(idx.level)]...)
	}

	begin := cell.ChildBeginAtLevel(idx.level)
	end := cell.ChildEndAtLevel(idx.level)
	i, _ := slices.BinarySearch(idx.keys, begin)
	for ; i < len(idx.keys) && idx.keys[i] < end; i++ {
		dst = append(dst, idx.cells[idx.keys[i]]...)
	}
	return dst
}

func (idx *CellIndex) insertLocked(entry *indexedReport) {
	idx.byID[entry.report.ID] = entry
	if len(idx.cells[entry.cell]) == 0 {
		i, _ := slices.BinarySearch(idx.keys, entry.cell)
		idx.keys = slices.Insert(idx.keys, i, entry.cell)
	}
	idx.cells[entry.cell] = append(idx.cells[entry.cell], entry)
}

func (idx *CellIndex) removeLocked(id uuid.UUID) {
	entry, ok := idx.byID[id]
	if !ok {
		return
	}
	delete(idx.byID, id)

	remaining := slices.DeleteFunc(idx.cells[entry.cell], func(e *indexedReport) bool { return e == entry })
	if len(remaining) > 0 {
		idx.cells[entry.cell] = remaining
		return
	}
	delete(idx.cells, entry.cell)
	if i, found := slices.BinarySearch(idx.keys, entry.cell); found {
		idx.keys = slices.Delete(idx.keys, i, i+1)
	}
}
