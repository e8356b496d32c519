package servicedir

import (
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"gxpc/internal/diag"
	"gxpc/internal/source"
	"gxpc/internal/tree"
)

func tpl(name string) *tree.Template {
	return &tree.Template{Name: tree.MustTemplateName(name), Content: tree.NewString(source.UnknownPos, nil, "")}
}

func imp(line uint32, name string) tree.Import {
	return tree.ClassImport(source.At("u.gxp", line, 1), tree.MustTemplateName(name))
}

func pkgImp(line uint32, pkg string) tree.Import {
	return tree.PackageImport(source.At("u.gxp", line, 1), pkg)
}

func TestScopedPrecedence(t *testing.T) {
	base := NewStatic(
		tpl("a.Foo"), tpl("b.Foo"), tpl("cur.Foo"),
		tpl("b.Bar"), tpl("c.Bar"),
		tpl("c.Baz"),
		tpl("cur.Qux"), tpl("c.Qux"),
	)
	b := diag.NewBuilder(diag.Set{})
	s := NewScoped(b, base, "cur", []tree.Import{
		imp(1, "a.Foo"),
		pkgImp(2, "b"),
		pkgImp(3, "c"),
	})

	tests := []struct {
		name  string
		want  string
		found bool
	}{
		{"Foo", "a.Foo", true},   // class import first
		{"Qux", "cur.Qux", true}, // current package over wildcard
		{"Baz", "c.Baz", true},   // unique wildcard match
		{"Bar", "", false},       // two wildcard matches: silently not found
		{"Missing", "", false},   // nowhere
		{"b.Bar", "b.Bar", true}, // qualified goes straight to base
		{"zzz.Foo", "", false},   // qualified miss
	}
	for _, tt := range tests {
		c, ok := s.Callable(tree.MustTemplateName(tt.name))
		if ok != tt.found {
			t.Errorf("%s: found = %v, want %v", tt.name, ok, tt.found)
			continue
		}
		if ok && c.Name.String() != tt.want {
			t.Errorf("%s: resolved to %s, want %s", tt.name, c.Name, tt.want)
		}
	}
	if b.Len() != 0 {
		t.Fatalf("wildcard ambiguity must not be reported, got %v", b.Build().Items())
	}
}

func TestScopedRecordsProbedNames(t *testing.T) {
	base := NewStatic(tpl("lib.Card"))
	s := NewScoped(diag.NewBuilder(diag.Set{}), base, "app", []tree.Import{
		imp(1, "x.Icon"),
		pkgImp(2, "lib"),
	})

	if _, ok := s.Callable(tree.MustTemplateName("Card")); !ok {
		t.Fatal("Card should resolve through the package import")
	}
	s.Callable(tree.MustTemplateName("Icon"))
	s.Callable(tree.MustTemplateName("z.Gone"))

	var got []string
	for _, n := range s.Probed() {
		got = append(got, n.String())
	}
	want := []string{"app.Card", "lib.Card", "x.Icon", "z.Gone"}
	if !slices.Equal(got, want) {
		t.Fatalf("probed = %v, want %v", got, want)
	}

	qualify := []struct{ in, want string }{
		{"Icon", "x.Icon"},
		{"Nope", "app.Nope"},
		{"q.Nope", "q.Nope"},
	}
	for _, tt := range qualify {
		if got := s.Qualify(tree.MustTemplateName(tt.in)).String(); got != tt.want {
			t.Errorf("Qualify(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
	bare := NewScoped(diag.NewBuilder(diag.Set{}), base, "", nil)
	if got := bare.Qualify(tree.MustTemplateName("Nope")); got.IsQualified() {
		t.Errorf("no package: Qualify = %s", got)
	}
}

func TestScopedAmbiguousClassImportReportedOnce(t *testing.T) {
	base := NewStatic(tpl("a.Foo"), tpl("b.Foo"))
	b := diag.NewBuilder(diag.Set{})
	s := NewScoped(b, base, "cur", []tree.Import{imp(1, "a.Foo"), imp(2, "b.Foo"), imp(3, "a.Foo")})

	// never referenced: still reported
	got := b.Build()
	if got.Len() != 1 {
		t.Fatalf("expected exactly one ambiguity error, got %d", got.Len())
	}
	d := got.Items()[0]
	if d.Code != diag.BindAmbiguousImport || d.Message != "Multiple imports for Foo: a.Foo and b.Foo" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}

	// lookups do not report again; the first import wins
	for range 3 {
		c, ok := s.Callable(tree.MustTemplateName("Foo"))
		if !ok || c.Name.String() != "a.Foo" {
			t.Fatalf("expected a.Foo, got %v %v", c, ok)
		}
	}
	if b.Len() != 1 {
		t.Fatalf("lookups must not add diagnostics")
	}
}

func TestScopedInterfaces(t *testing.T) {
	iface := tree.NewInterface(source.UnknownPos, tree.MustTemplateName("p.Shape"), nil, nil, nil)
	s := NewScoped(diag.NopReporter{}, NewStatic(iface, tpl("p.Circle")), "p", nil)

	if _, ok := s.Implementable(tree.MustTemplateName("Shape")); !ok {
		t.Errorf("interface must be implementable")
	}
	if _, ok := s.InstanceCallable(tree.MustTemplateName("Shape")); !ok {
		t.Errorf("interface must be instance-callable")
	}
	if _, ok := s.Callable(tree.MustTemplateName("Shape")); ok {
		t.Errorf("interfaces are not directly callable")
	}
	if _, ok := s.Implementable(tree.MustTemplateName("Circle")); ok {
		t.Errorf("templates are not implementable")
	}
}

func TestOnDemandLoadsOnceVisibly(t *testing.T) {
	var loads atomic.Int32
	d := NewOnDemand(func(n tree.TemplateName) (tree.Root, bool) {
		loads.Add(1)
		if n.String() == "p.Foo" {
			return tpl("p.Foo"), true
		}
		return nil, false
	}, nil)

	var wg sync.WaitGroup
	results := make([]*tree.Callable, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = d.Callable(tree.MustTemplateName("p.Foo"))
		}()
	}
	wg.Wait()

	for i, c := range results {
		if c == nil || c != results[0] {
			t.Fatalf("result %d differs from the memoized callable", i)
		}
	}
	if n := loads.Load(); n < 1 || n > 16 {
		t.Fatalf("unexpected load count %d", n)
	}
	before := loads.Load()
	if _, ok := d.Callable(tree.MustTemplateName("p.Foo")); !ok || loads.Load() != before {
		t.Fatalf("memoized lookup must not load again")
	}
	if _, ok := d.Callable(tree.MustTemplateName("p.Nope")); ok {
		t.Fatalf("missing unit must not resolve")
	}
}

func TestOnDemandRejectsUnqualified(t *testing.T) {
	d := NewOnDemand(func(tree.TemplateName) (tree.Root, bool) { return nil, false }, nil)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unqualified name")
		}
	}()
	d.Callable(tree.MustTemplateName("Foo"))
}
