package core

// TransactionStore holds a classified transaction collection. Stores are
// immutable after construction: Filter returns a new store over a subset,
// and derived tables are built fresh per aggregation pass, so independent
// runs never share mutable state.
type TransactionStore struct {
	txs []Transaction
}

func NewStore(txs []Transaction) *TransactionStore {
	cp := make([]Transaction, len(txs))
	copy(cp, txs)
	return &TransactionStore{txs: cp}
}

// All returns a copy of the underlying transactions.
func (s *TransactionStore) All() []Transaction {
	cp := make([]Transaction, len(s.txs))
	copy(cp, s.txs)
	return cp
}

func (s *TransactionStore) Len() int { return len(s.txs) }

// Filter returns a new store containing transactions the predicate accepts.
func (s *TransactionStore) Filter(pred func(Transaction) bool) *TransactionStore {
	var out []Transaction
	for _, t := range s.txs {
		if pred(t) {
			out = append(out, t)
		}
	}
	return &TransactionStore{txs: out}
}

// GroupBy partitions the store by the given key function, preserving
// transaction order within each partition.
func (s *TransactionStore) GroupBy(key func(Transaction) string) map[string]*TransactionStore {
	groups := make(map[string][]Transaction)
	for _, t := range s.txs {
		k := key(t)
		groups[k] = append(groups[k], t)
	}
	out := make(map[string]*TransactionStore, len(groups))
	for k, txs := range groups {
		out[k] = &TransactionStore{txs: txs}
	}
	return out
}

// SumAmount sums the signed amounts of every transaction in the store.
func (s *TransactionStore) SumAmount() Money {
	var total int64
	for _, t := range s.txs {
		total += t.Amount.Cents
	}
	return Money{Cents: total}
}

// InMonth restricts to transactions dated within the given month.
func (s *TransactionStore) InMonth(year, month int) *TransactionStore {
	return s.Filter(func(t Transaction) bool {
		return t.Date.Year() == year && t.Date.Month() == month
	})
}

// InRange restricts to transactions with from <= date <= to.
func (s *TransactionStore) InRange(from, to Date) *TransactionStore {
	return s.Filter(func(t Transaction) bool {
		return !t.Date.Before(from.Time) && !t.Date.After(to.Time)
	})
}

// ByGroup restricts to transactions classified under the given group.
func (s *TransactionStore) ByGroup(g Group) *TransactionStore {
	return s.Filter(func(t Transaction) bool { return t.Group == g })
}
