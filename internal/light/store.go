package light

import (
	"sync"

	"github.com/annel0/voxel-lighting/internal/vec"
)

// sectionData хранит данные освещения одной секции: состояние и по
// нибл-кубу на каждый вид света. Кубы выделяются лениво при первой записи.
type sectionData struct {
	state SectionState
	cubes [kindCount]*NibbleCube
}

// Store — плоское хранилище значений света по позициям, организованное
// по секциям 16³. Не проверяет физическую корректность значений — это
// задача Propagator. Отсутствие секции в карте означает состояние Absent.
type Store struct {
	mu       sync.RWMutex
	sections map[vec.Vec3]*sectionData
}

// NewStore создаёт пустое хранилище света
func NewStore() *Store {
	return &Store{
		sections: make(map[vec.Vec3]*sectionData),
	}
}

// Get возвращает уровень света в позиции. Для секций в состоянии
// Absent или Uninitialized возвращает 0 — это ожидаемое состояние,
// а не ошибка.
func (s *Store) Get(pos vec.Vec3, kind Kind) uint8 {
	sec := pos.ToSectionCoords()

	s.mu.RLock()
	data, exists := s.sections[sec]
	s.mu.RUnlock()

	if !exists || data.state != SectionInitialized {
		return 0
	}

	cube := data.cubes[kind]
	if cube == nil {
		return 0
	}

	local := pos.LocalInSection()
	return cube.Get(local.X, local.Y, local.Z)
}

// Set устанавливает уровень света в позиции. Секция обязана существовать
// (состояние != Absent) — за это отвечает SectionLifecycleManager.
// Запись в Uninitialized секцию переводит её в Initialized.
func (s *Store) Set(pos vec.Vec3, kind Kind, v uint8) error {
	if v > MaxLevel {
		return ErrLevelOutOfRange
	}

	sec := pos.ToSectionCoords()

	s.mu.Lock()
	defer s.mu.Unlock()

	data, exists := s.sections[sec]
	if !exists {
		return ErrSectionAbsent
	}

	data.state = SectionInitialized
	cube := data.cubes[kind]
	if cube == nil {
		cube = new(NibbleCube)
		data.cubes[kind] = cube
	}

	local := pos.LocalInSection()
	cube.Set(local.X, local.Y, local.Z, v)
	return nil
}

// SectionState возвращает состояние данных освещения секции
func (s *Store) SectionState(sec vec.Vec3) SectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.sections[sec]
	if !exists {
		return SectionAbsent
	}
	return data.state
}

// EnsureSection переводит секцию из Absent в Uninitialized.
// Для уже существующих секций ничего не делает.
func (s *Store) EnsureSection(sec vec.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sections[sec]; !exists {
		s.sections[sec] = &sectionData{state: SectionUninitialized}
	}
}

// DiscardSection удаляет данные секции (переход в Absent)
func (s *Store) DiscardSection(sec vec.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sections, sec)
}

// Sections возвращает снимок координат всех существующих секций
func (s *Store) Sections() []vec.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]vec.Vec3, 0, len(s.sections))
	for sec := range s.sections {
		out = append(out, sec)
	}
	return out
}

// SectionCount возвращает количество секций в указанном состоянии
func (s *Store) SectionCount(state SectionState) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, data := range s.sections {
		if data.state == state {
			n++
		}
	}
	return n
}

// ExportSection возвращает состояние и копии нибл-кубов секции для
// сохранения. Для несуществующей секции возвращает SectionAbsent.
func (s *Store) ExportSection(sec vec.Vec3) (SectionState, []byte, []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.sections[sec]
	if !exists {
		return SectionAbsent, nil, nil
	}

	var blockBytes, skyBytes []byte
	if cube := data.cubes[KindBlock]; cube != nil {
		blockBytes = cube.Bytes()
	}
	if cube := data.cubes[KindSky]; cube != nil {
		skyBytes = cube.Bytes()
	}
	return data.state, blockBytes, skyBytes
}

// ImportSection восстанавливает секцию из сохранённых данных
func (s *Store) ImportSection(sec vec.Vec3, state SectionState, blockBytes, skyBytes []byte) {
	if state == SectionAbsent {
		s.DiscardSection(sec)
		return
	}

	data := &sectionData{state: state}
	if len(blockBytes) > 0 {
		data.cubes[KindBlock] = new(NibbleCube)
		data.cubes[KindBlock].FromBytes(blockBytes)
	}
	if len(skyBytes) > 0 {
		data.cubes[KindSky] = new(NibbleCube)
		data.cubes[KindSky].FromBytes(skyBytes)
	}

	s.mu.Lock()
	s.sections[sec] = data
	s.mu.Unlock()
}
