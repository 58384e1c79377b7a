package luamap

// compatibility defines the procedural get_/set_ functions older level
// scripts call, on top of the object bindings.
const compatibility = `
local function platform(polygon)
  return Polygons[polygon].platform
end

function annotations()
  local i, n = 0, # Annotations
  return function()
    if i >= n then return nil end
    local a = Annotations[i]
    i = i + 1
    local p = -1
    if a.polygon then p = a.polygon.index end
    return a.text, p, a.x, a.y
  end
end

function get_level_name() return Level.name end
function get_map_environment() return Level.vacuum, Level.magnetic, Level.rebellion, Level.low_gravity end
function number_of_polygons() return # Polygons end

function get_fog_present() return Level.fog.active end
function get_fog_affects_landscapes() return Level.fog.affects_landscapes end
function get_fog_depth() return Level.fog.depth end
function get_fog_color() local c = Level.fog.color return c.r, c.g, c.b end
function set_fog_present(present) Level.fog.active = present end
function set_fog_affects_landscapes(affects) Level.fog.affects_landscapes = affects end
function set_fog_depth(depth) Level.fog.depth = depth end
function set_fog_color(r, g, b) local c = Level.fog.color c.r = r c.g = g c.b = b end

function get_underwater_fog_present() return Level.underwater_fog.active end
function get_underwater_fog_affects_landscapes() return Level.underwater_fog.affects_landscapes end
function get_underwater_fog_depth() return Level.underwater_fog.depth end
function get_underwater_fog_color() local c = Level.underwater_fog.color return c.r, c.g, c.b end
function set_underwater_fog_present(present) Level.underwater_fog.active = present end
function set_underwater_fog_affects_landscapes(affects) Level.underwater_fog.affects_landscapes = affects end
function set_underwater_fog_depth(depth) Level.underwater_fog.depth = depth end
function set_underwater_fog_color(r, g, b) local c = Level.underwater_fog.color c.r = r c.g = g c.b = b end

function get_light_state(light) return Lights[light].active end
function set_light_state(light, state) Lights[light].active = state end
function get_tag_state(tag) return Tags[tag].active end
function set_tag_state(tag, state) Tags[tag].active = state end

function get_polygon_type(polygon) return Polygons[polygon].type end
function set_polygon_type(polygon, t) Polygons[polygon].type = t end
function get_polygon_center(polygon) local p = Polygons[polygon] return p.x * 1024, p.y * 1024 end
function get_polygon_floor_height(polygon) return Polygons[polygon].floor.height end
function set_polygon_floor_height(polygon, height) Polygons[polygon].floor.height = height end
function get_polygon_ceiling_height(polygon) return Polygons[polygon].ceiling.height end
function set_polygon_ceiling_height(polygon, height) Polygons[polygon].ceiling.height = height end

function get_platform_index(polygon)
  local p = platform(polygon)
  if p then return p.index end
  return -1
end
function get_platform_state(polygon) local p = platform(polygon) if p then return p.active end end
function set_platform_state(polygon, state) local p = platform(polygon) if p then p.active = state end end
function get_platform_movement(polygon) local p = platform(polygon) if p then return p.extending end end
function set_platform_movement(polygon, extending) local p = platform(polygon) if p then p.extending = extending end end
function get_platform_floor_height(polygon) local p = platform(polygon) if p then return p.floor_height end end
function set_platform_floor_height(polygon, height) local p = platform(polygon) if p then p.floor_height = height end end
function get_platform_ceiling_height(polygon) local p = platform(polygon) if p then return p.ceiling_height end end
function set_platform_ceiling_height(polygon, height) local p = platform(polygon) if p then p.ceiling_height = height end end
function get_platform_monster_control(polygon) local p = platform(polygon) if p then return p.monster_controllable end end
function set_platform_monster_control(polygon, control) local p = platform(polygon) if p then p.monster_controllable = control end end
function get_platform_player_control(polygon) local p = platform(polygon) if p then return p.player_controllable end end
function set_platform_player_control(polygon, control) local p = platform(polygon) if p then p.player_controllable = control end end
function get_platform_speed(polygon) local p = platform(polygon) if p then return p.speed * 1024 / 30 end end
function set_platform_speed(polygon, speed) local p = platform(polygon) if p then p.speed = speed * 30 / 1024 end end
`
