package synth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"synthpool/storage"
)

// Store persists engine state as JSON records in a key-value database, scoped
// under the pool identifier so multiple pools share one database.
type Store struct {
	db     storage.Database
	prefix string
}

// NewStore wraps a database with the pool-scoped codec.
func NewStore(db storage.Database, poolID string) *Store {
	return &Store{db: db, prefix: "synth/" + poolID + "/"}
}

func (s *Store) key(parts ...string) []byte {
	out := s.prefix
	for i, part := range parts {
		if i > 0 {
			out += "/"
		}
		out += part
	}
	return []byte(out)
}

func (s *Store) get(key []byte, out interface{}) (bool, error) {
	raw, err := s.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("synth store: decode %s: %w", string(key), err)
	}
	return true, nil
}

func (s *Store) put(key []byte, in interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("synth store: encode %s: %w", string(key), err)
	}
	return s.db.Put(key, raw)
}

func (s *Store) GetPool() (*Pool, error) {
	pool := new(Pool)
	ok, err := s.get(s.key("pool"), pool)
	if err != nil || !ok {
		return nil, err
	}
	return pool, nil
}

func (s *Store) PutPool(pool *Pool) error {
	return s.put(s.key("pool"), pool)
}

func (s *Store) GetCycle(index uint64) (*Cycle, error) {
	cycle := new(Cycle)
	ok, err := s.get(s.key("cycle", strconv.FormatUint(index, 10)), cycle)
	if err != nil || !ok {
		return nil, err
	}
	return cycle, nil
}

func (s *Store) PutCycle(cycle *Cycle) error {
	return s.put(s.key("cycle", strconv.FormatUint(cycle.Index, 10)), cycle)
}

func (s *Store) GetPosition(addr Address) (*Position, error) {
	position := new(Position)
	ok, err := s.get(s.key("position", addr.Hex()), position)
	if err != nil || !ok {
		return nil, err
	}
	return position, nil
}

func (s *Store) PutPosition(position *Position) error {
	return s.put(s.key("position", position.Address.Hex()), position)
}

func (s *Store) GetRequest(addr Address) (*Request, error) {
	req := new(Request)
	ok, err := s.get(s.key("request", addr.Hex()), req)
	if err != nil || !ok {
		return nil, err
	}
	return req, nil
}

func (s *Store) PutRequest(addr Address, req *Request) error {
	return s.put(s.key("request", addr.Hex()), req)
}

func (s *Store) DeleteRequest(addr Address) error {
	return s.db.Delete(s.key("request", addr.Hex()))
}

func (s *Store) GetLP(addr Address) (*LPPosition, error) {
	position := new(LPPosition)
	ok, err := s.get(s.key("lp", addr.Hex()), position)
	if err != nil || !ok {
		return nil, err
	}
	return position, nil
}

func (s *Store) PutLP(position *LPPosition) error {
	return s.put(s.key("lp", position.Address.Hex()), position)
}

func (s *Store) DeleteLP(addr Address) error {
	return s.db.Delete(s.key("lp", addr.Hex()))
}

func (s *Store) GetLPRequest(addr Address) (*Request, error) {
	req := new(Request)
	ok, err := s.get(s.key("lprequest", addr.Hex()), req)
	if err != nil || !ok {
		return nil, err
	}
	return req, nil
}

func (s *Store) PutLPRequest(addr Address, req *Request) error {
	return s.put(s.key("lprequest", addr.Hex()), req)
}

func (s *Store) DeleteLPRequest(addr Address) error {
	return s.db.Delete(s.key("lprequest", addr.Hex()))
}

var _ EngineState = (*Store)(nil)
