package luamap

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/mapscript/world"
)

// field is one property of a bound object. A nil set makes it read-only.
type field struct {
	get func(L *lua.LState, i int) lua.LValue
	set func(L *lua.LState, i int, v lua.LValue)
}

// class describes a userdata type whose instances are indexes into the
// world.
type class struct {
	name   string
	valid  func(i int) bool
	fields map[string]field
}

type ref struct {
	class *class
	index int
}

func (c *class) register(L *lua.LState) {
	mt := L.NewTypeMetatable(c.name)
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		i := c.check(L)
		key := L.CheckString(2)
		if key == "index" {
			L.Push(lua.LNumber(i))
			return 1
		}
		f, ok := c.fields[key]
		if !ok || f.get == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(f.get(L, i))
		return 1
	}))
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		i := c.check(L)
		key := L.CheckString(2)
		f, ok := c.fields[key]
		if !ok || f.set == nil {
			L.RaiseError("%s: cannot set %s", c.name, key)
		}
		f.set(L, i, L.Get(3))
		return 0
	}))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(fmt.Sprintf("%s %d", c.name, c.check(L))))
		return 1
	}))
}

func (c *class) check(L *lua.LState) int {
	ud := L.CheckUserData(1)
	r, ok := ud.Value.(ref)
	if !ok || r.class != c {
		L.ArgError(1, c.name+" expected")
	}
	if !c.valid(r.index) {
		L.RaiseError("%s %d no longer exists", c.name, r.index)
	}
	return r.index
}

func (c *class) push(L *lua.LState, i int) lua.LValue {
	if !c.valid(i) {
		return lua.LNil
	}
	ud := L.NewUserData()
	ud.Value = ref{class: c, index: i}
	L.SetMetatable(ud, L.GetTypeMetatable(c.name))
	return ud
}

// index converts a script-side reference (number or instance) to an index.
func (c *class) index(v lua.LValue) (int, bool) {
	switch v := v.(type) {
	case lua.LNumber:
		i := int(v)
		return i, float64(i) == float64(v) && c.valid(i)
	case *lua.LUserData:
		r, ok := v.Value.(ref)
		return r.index, ok && r.class == c && c.valid(r.index)
	}
	return 0, false
}

// collection is a global object that indexes, counts and iterates the
// instances of one class.
type collection struct {
	name    string
	elem    *class
	length  func() int
	methods map[string]lua.LGFunction
}

func (col *collection) register(L *lua.LState) {
	mt := L.NewTable()
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		switch k := L.Get(2).(type) {
		case lua.LNumber:
			i := int(k)
			if float64(i) != float64(k) {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(col.elem.push(L, i))
		case lua.LString:
			if m, ok := col.methods[string(k)]; ok {
				L.Push(L.NewFunction(m))
			} else {
				L.Push(lua.LNil)
			}
		default:
			L.Push(lua.LNil)
		}
		return 1
	}))
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("%s is read-only", col.name)
		return 0
	}))
	L.SetField(mt, "__len", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(col.length()))
		return 1
	}))
	L.SetField(mt, "__call", L.NewFunction(func(L *lua.LState) int {
		next := 0
		L.Push(L.NewFunction(func(L *lua.LState) int {
			for next < col.length() {
				i := next
				next++
				if col.elem.valid(i) {
					L.Push(col.elem.push(L, i))
					return 1
				}
			}
			L.Push(lua.LNil)
			return 1
		}))
		return 1
	}))

	ud := L.NewUserData()
	L.SetMetatable(ud, mt)
	L.SetGlobal(col.name, ud)
}

func boolField(name string, get func(i int) bool, set func(i int, b bool)) field {
	f := field{get: func(_ *lua.LState, i int) lua.LValue { return lua.LBool(get(i)) }}
	if set != nil {
		f.set = func(L *lua.LState, i int, v lua.LValue) {
			b, ok := v.(lua.LBool)
			if !ok {
				L.RaiseError("%s: incorrect argument type", name)
			}
			set(i, bool(b))
		}
	}
	return f
}

func numberField(name string, get func(i int) float64, set func(i int, n float64)) field {
	f := field{get: func(_ *lua.LState, i int) lua.LValue { return lua.LNumber(get(i)) }}
	if set != nil {
		f.set = func(L *lua.LState, i int, v lua.LValue) {
			n, ok := v.(lua.LNumber)
			if !ok {
				L.RaiseError("%s: incorrect argument type", name)
			}
			set(i, float64(n))
		}
	}
	return f
}

func toWorld(v float64) int   { return int(v * world.WorldOne) }
func fromWorld(d int) float64 { return float64(d) / world.WorldOne }

// bind registers the world reflection layer as globals in L.
func bind(L *lua.LState, w *world.World) {
	inRange := func(n func() int) func(int) bool {
		return func(i int) bool { return i >= 0 && i < n() }
	}

	var (
		level      = &class{name: "Level", valid: func(i int) bool { return i == 0 }}
		fog        = &class{name: "fog", valid: func(i int) bool { return w.FogAt(i) != nil }}
		fogColor   = &class{name: "fog_color", valid: func(i int) bool { return w.FogAt(i) != nil }}
		polygon    = &class{name: "polygon", valid: w.ValidPolygon}
		floor      = &class{name: "polygon_floor", valid: w.ValidPolygon}
		ceiling    = &class{name: "polygon_ceiling", valid: w.ValidPolygon}
		platform   = &class{name: "platform", valid: inRange(func() int { return len(w.Platforms) })}
		light      = &class{name: "light", valid: inRange(func() int { return len(w.Lights) })}
		tag        = &class{name: "tag", valid: inRange(func() int { return len(w.Tags) })}
		annotation = &class{name: "annotation", valid: inRange(func() int { return len(w.Annotations) })}
	)

	env := func(flag func(e world.Environment) bool) field {
		return field{get: func(*lua.LState, int) lua.LValue { return lua.LBool(flag(w.Environment)) }}
	}
	level.fields = map[string]field{
		"name":           {get: func(*lua.LState, int) lua.LValue { return lua.LString(w.Name) }},
		"fog":            {get: func(L *lua.LState, _ int) lua.LValue { return fog.push(L, world.FogAboveLiquid) }},
		"underwater_fog": {get: func(L *lua.LState, _ int) lua.LValue { return fog.push(L, world.FogBelowLiquid) }},
		"vacuum":         env(func(e world.Environment) bool { return e.Vacuum }),
		"magnetic":       env(func(e world.Environment) bool { return e.Magnetic }),
		"rebellion":      env(func(e world.Environment) bool { return e.Rebellion }),
		"low_gravity":    env(func(e world.Environment) bool { return e.LowGravity }),
	}

	active := boolField("active",
		func(i int) bool { return w.FogAt(i).Present },
		func(i int, b bool) { w.FogAt(i).Present = b })
	fog.fields = map[string]field{
		"active":  active,
		"present": active,
		"affects_landscapes": boolField("affects_landscapes",
			func(i int) bool { return w.FogAt(i).AffectsLandscapes },
			func(i int, b bool) { w.FogAt(i).AffectsLandscapes = b }),
		"depth": numberField("depth",
			func(i int) float64 { return w.FogAt(i).Depth },
			func(i int, n float64) { w.FogAt(i).Depth = n }),
		"color": {get: func(L *lua.LState, i int) lua.LValue { return fogColor.push(L, i) }},
	}

	channel := func(name string, sel func(c *world.Color) *uint16) field {
		return numberField(name,
			func(i int) float64 { return float64(*sel(&w.FogAt(i).Color)) / 65535 },
			func(i int, n float64) { *sel(&w.FogAt(i).Color) = world.PinColor(n) })
	}
	fogColor.fields = map[string]field{
		"r": channel("r", func(c *world.Color) *uint16 { return &c.Red }),
		"g": channel("g", func(c *world.Color) *uint16 { return &c.Green }),
		"b": channel("b", func(c *world.Color) *uint16 { return &c.Blue }),
	}

	floorHeight := numberField("height",
		func(i int) float64 { return fromWorld(w.Polygons[i].FloorHeight) },
		func(i int, n float64) { w.Polygons[i].FloorHeight = toWorld(n) })
	floor.fields = map[string]field{"height": floorHeight, "z": floorHeight}

	ceilingHeight := numberField("height",
		func(i int) float64 { return fromWorld(w.Polygons[i].CeilingHeight) },
		func(i int, n float64) { w.Polygons[i].CeilingHeight = toWorld(n) })
	ceiling.fields = map[string]field{"height": ceilingHeight, "z": ceilingHeight}

	polygon.fields = map[string]field{
		"type": numberField("type",
			func(i int) float64 { return float64(w.Polygons[i].Type) },
			func(i int, n float64) { w.Polygons[i].Type = int(n) }),
		"x":       numberField("x", func(i int) float64 { return fromWorld(w.Polygons[i].X) }, nil),
		"y":       numberField("y", func(i int) float64 { return fromWorld(w.Polygons[i].Y) }, nil),
		"z":       numberField("z", func(i int) float64 { return fromWorld(w.Polygons[i].FloorHeight) }, nil),
		"floor":   {get: func(L *lua.LState, i int) lua.LValue { return floor.push(L, i) }},
		"ceiling": {get: func(L *lua.LState, i int) lua.LValue { return ceiling.push(L, i) }},
		"platform": {get: func(L *lua.LState, i int) lua.LValue {
			p, ok := w.PlatformOf(i)
			if !ok {
				return lua.LNil
			}
			return platform.push(L, p)
		}},
	}

	plat := func(i int) *world.Platform { return &w.Platforms[i] }
	platform.fields = map[string]field{
		"active": boolField("active",
			func(i int) bool { return plat(i).Active },
			func(i int, b bool) { plat(i).Active = b }),
		"extending": boolField("extending",
			func(i int) bool { return plat(i).Extending },
			func(i int, b bool) { plat(i).Extending = b }),
		"contracting": boolField("contracting",
			func(i int) bool { return !plat(i).Extending },
			func(i int, b bool) { plat(i).Extending = !b }),
		"monster_controllable": boolField("monster_controllable",
			func(i int) bool { return plat(i).MonsterControllable },
			func(i int, b bool) { plat(i).MonsterControllable = b }),
		"player_controllable": boolField("player_controllable",
			func(i int) bool { return plat(i).PlayerControllable },
			func(i int, b bool) { plat(i).PlayerControllable = b }),
		"floor_height": numberField("floor_height",
			func(i int) float64 { return fromWorld(plat(i).FloorHeight) },
			func(i int, n float64) { plat(i).FloorHeight = toWorld(n) }),
		"ceiling_height": numberField("ceiling_height",
			func(i int) float64 { return fromWorld(plat(i).CeilingHeight) },
			func(i int, n float64) { plat(i).CeilingHeight = toWorld(n) }),
		"speed": numberField("speed",
			func(i int) float64 { return float64(plat(i).Speed) * world.TicksPerSecond / world.WorldOne },
			func(i int, n float64) { plat(i).Speed = int(n * world.WorldOne / world.TicksPerSecond) }),
		"polygon": {get: func(L *lua.LState, i int) lua.LValue { return polygon.push(L, plat(i).Polygon) }},
	}

	light.fields = map[string]field{
		"active": boolField("active",
			func(i int) bool { return w.Lights[i].Active },
			func(i int, b bool) { w.Lights[i].Active = b }),
	}
	tag.fields = map[string]field{
		"active": boolField("active",
			func(i int) bool { return w.Tags[i].Active },
			func(i int, b bool) { w.Tags[i].Active = b }),
	}

	note := func(i int) *world.Annotation { return &w.Annotations[i] }
	annotation.fields = map[string]field{
		"polygon": {
			get: func(L *lua.LState, i int) lua.LValue {
				if note(i).Polygon == world.None {
					return lua.LNil
				}
				return polygon.push(L, note(i).Polygon)
			},
			set: func(L *lua.LState, i int, v lua.LValue) {
				if v == lua.LNil {
					note(i).Polygon = world.None
					return
				}
				p, ok := polygon.index(v)
				if !ok {
					L.RaiseError("polygon: incorrect argument type")
				}
				note(i).Polygon = p
			},
		},
		"text": {
			get: func(_ *lua.LState, i int) lua.LValue { return lua.LString(note(i).Text) },
			set: func(L *lua.LState, i int, v lua.LValue) {
				s, ok := v.(lua.LString)
				if !ok {
					L.RaiseError("text: incorrect argument type")
				}
				text := string(s)
				if len(text) > world.MaxAnnotationText {
					text = text[:world.MaxAnnotationText]
				}
				note(i).Text = text
			},
		},
		"x": numberField("x",
			func(i int) float64 { return fromWorld(note(i).X) },
			func(i int, n float64) { note(i).X = toWorld(n) }),
		"y": numberField("y",
			func(i int) float64 { return fromWorld(note(i).Y) },
			func(i int, n float64) { note(i).Y = toWorld(n) }),
	}

	for _, c := range []*class{level, fog, fogColor, polygon, floor, ceiling, platform, light, tag, annotation} {
		c.register(L)
	}

	collections := []*collection{
		{name: "Polygons", elem: polygon, length: func() int { return len(w.Polygons) }},
		{name: "Lights", elem: light, length: func() int { return len(w.Lights) }},
		{name: "Tags", elem: tag, length: func() int { return len(w.Tags) }},
		{name: "Platforms", elem: platform, length: func() int { return len(w.Platforms) }},
		{
			name: "Annotations", elem: annotation,
			length: func() int { return len(w.Annotations) },
			methods: map[string]lua.LGFunction{
				// Annotations.new(polygon, text, [x, y])
				"new": func(L *lua.LState) int {
					poly := world.None
					if v := L.Get(1); v != lua.LNil {
						p, ok := polygon.index(v)
						if !ok {
							L.RaiseError("new: incorrect argument type")
						}
						poly = p
					}
					text, ok := L.Get(2).(lua.LString)
					if !ok {
						L.RaiseError("new: incorrect argument type")
					}
					var x, y *int
					if v, ok := L.Get(3).(lua.LNumber); ok {
						d := toWorld(float64(v))
						x = &d
					}
					if v, ok := L.Get(4).(lua.LNumber); ok {
						d := toWorld(float64(v))
						y = &d
					}
					i, err := w.AddAnnotation(poly, string(text), x, y)
					if err != nil {
						L.RaiseError("new: %s", err.Error())
					}
					L.Push(annotation.push(L, i))
					return 1
				},
			},
		},
	}
	for _, col := range collections {
		col.register(L)
	}

	L.SetGlobal("Level", level.push(L, 0))
}
