package scene

import (
	"fmt"
)

// builtinScene pairs discovery metadata with a constructor
type builtinScene struct {
	info  SceneInfo
	build func(seed int64) *Scene
}

var builtinScenes = []builtinScene{
	{
		info: SceneInfo{
			ID:          "default",
			Description: "Final scene: a field of random small spheres around three large ones, with motion and defocus blur",
		},
		build: NewDefaultScene,
	},
	{
		info: SceneInfo{
			ID:          "three-spheres",
			Description: "Diffuse, hollow glass and fuzzed metal spheres on a ground sphere",
		},
		build: func(int64) *Scene { return NewThreeSpheresScene() },
	},
	{
		info: SceneInfo{
			ID:          "two-spheres",
			Description: "A diffuse sphere resting on a large diffuse ground sphere",
		},
		build: func(int64) *Scene { return NewTwoSpheresScene() },
	},
	{
		info: SceneInfo{
			ID:          "sphere-grid",
			Description: "10x10 grid of rainbow-colored metallic spheres",
		},
		build: func(int64) *Scene { return NewSphereGridScene() },
	},
	{
		info: SceneInfo{
			ID:          "sky",
			Description: "Empty world showing only the background gradient",
		},
		build: func(int64) *Scene { return NewSkyScene() },
	},
}

// ListBuiltinScenes returns metadata for every built-in scene
func ListBuiltinScenes() []SceneInfo {
	infos := make([]SceneInfo, 0, len(builtinScenes))
	for _, b := range builtinScenes {
		info := b.info
		info.Name = info.ID
		info.DisplayName = titleCase(info.ID)
		info.Group = builtinGroup
		info.Type = "builtin"
		infos = append(infos, info)
	}
	return infos
}

// NewBuiltinScene builds the named scene. Seed only affects randomly generated scenes.
func NewBuiltinScene(name string, seed int64) (*Scene, error) {
	for _, b := range builtinScenes {
		if b.info.ID == name {
			return b.build(seed), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
}
