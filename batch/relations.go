package batch

import (
	"context"
	"sort"

	"github.com/teranos/pharmadex/store"
)

// Links returns a loader over a join table: owner key -> linked keys.
// Owners without links are absent from the result.
func Links(client store.Client, table, ownerColumn, targetColumn string, opts ...Option) *Loader[string, []string] {
	return NewLoader(func(ctx context.Context, owners []string) (map[string][]string, error) {
		res, err := client.From(table).
			Select(ownerColumn, targetColumn).
			In(ownerColumn, owners).
			Order(ownerColumn, true, false).
			Order(targetColumn, true, false).
			Execute(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string][]string)
		for _, row := range res.Rows {
			owner, target := str(row[ownerColumn]), str(row[targetColumn])
			if owner == "" || target == "" {
				continue
			}
			out[owner] = append(out[owner], target)
		}
		return out, nil
	}, opts...)
}

// Values returns a loader over a lookup table: key column -> value column
// (typically id -> name).
func Values(client store.Client, table, keyColumn, valueColumn string, opts ...Option) *Loader[string, string] {
	return NewLoader(func(ctx context.Context, keys []string) (map[string]string, error) {
		res, err := client.From(table).
			Select(keyColumn, valueColumn).
			In(keyColumn, keys).
			Execute(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string]string, len(res.Rows))
		for _, row := range res.Rows {
			out[str(row[keyColumn])] = str(row[valueColumn])
		}
		return out, nil
	}, opts...)
}

// ResolveNames runs both phases for owners: one query for their join rows,
// one for the names of every distinct linked key. Each owner's names are
// sorted; owners with no links map to an empty slice.
func ResolveNames(ctx context.Context, links *Loader[string, []string], names *Loader[string, string], owners []string) (map[string][]string, error) {
	linked, err := links.Load(ctx, owners)
	if err != nil {
		return nil, err
	}

	var targets []string
	for _, ids := range linked {
		targets = append(targets, ids...)
	}
	sort.Strings(targets)

	labels, err := names.Load(ctx, targets)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(owners))
	for _, owner := range Distinct(owners) {
		resolved := []string{}
		for _, id := range linked[owner] {
			if name, ok := labels[id]; ok {
				resolved = append(resolved, name)
			}
		}
		sort.Strings(resolved)
		out[owner] = resolved
	}
	return out, nil
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}
