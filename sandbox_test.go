package glsl

import "testing"

func TestSandboxFiltersDefaultInheritance(t *testing.T) {
	mod, err := DesignTime.Resolve("sandbox/filters")
	if err != nil {
		t.Fatal(err)
	}
	def, err := mod.GetDefinition()
	if err != nil {
		t.Fatal(err)
	}

	blur := effectiveOptions(def.Options, "blur")
	if len(blur) != 1 || blur["intensity"].Uniform != "u_intensity" {
		t.Fatalf("expected blur to inherit only the default intensity option, got %+v", blur)
	}

	posterize := effectiveOptions(def.Options, "posterize")
	if len(posterize) != 2 {
		t.Fatalf("expected posterize to inherit the default plus its own levels entry, got %+v", posterize)
	}
	if posterize["intensity"].Uniform != "u_intensity" || posterize["levels"].Uniform != "u_levels" {
		t.Fatalf("unexpected merged posterize options: %+v", posterize)
	}
}

func TestSandboxEffectsHasIndependentOptionGroups(t *testing.T) {
	mod, err := DesignTime.Resolve("sandbox/effects")
	if err != nil {
		t.Fatal(err)
	}
	def, err := mod.GetDefinition()
	if err != nil {
		t.Fatal(err)
	}

	vignette := effectiveOptions(def.Options, "vignette")
	if len(vignette) != 1 || vignette["radius"].Uniform != "u_radius" {
		t.Fatalf("unexpected vignette options: %+v", vignette)
	}
	aberration := effectiveOptions(def.Options, "chromaticAberration")
	if len(aberration) != 2 {
		t.Fatalf("unexpected chromaticAberration options: %+v", aberration)
	}
}

func TestSandboxModuleGetDefinitionLists(t *testing.T) {
	for _, name := range []string{"sandbox", "sandbox/colors", "sandbox/effects", "sandbox/filters"} {
		mod, err := DesignTime.Resolve(name)
		if err != nil {
			t.Fatal(err)
		}
		def, err := mod.GetDefinition()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(def.Methods) == 0 {
			t.Fatalf("expected %s to expose at least one method", name)
		}
	}
}

func TestRegisterSandboxModulesRejectsSecondCall(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected registerSandboxModules to panic on a duplicate call")
		}
	}()
	registerSandboxModules()
}
