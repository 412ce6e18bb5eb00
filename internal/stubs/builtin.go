package stubs

// Base returns the base runtime library set that is always part of the
// compilation regardless of the configured Unity API surface: the core
// system types, the UdonSharp marker base type with its event-send API,
// the player handle and the attribute/enum types the rules reason about.
func Base() []*Catalog {
	return []*Catalog{systemCatalog(), engineCatalog(), sdkCatalog()}
}

func method(name string, params ...Param) Member {
	return Member{Name: name, Kind: MemberMethod, Type: "void", Params: params, Public: true}
}

func p(name, typ string) Param {
	return Param{Name: name, Type: typ}
}

func class(ns, name, base string, members ...Member) TypeDef {
	return TypeDef{Name: name, Namespace: ns, Base: base, Kind: KindClass, Members: members}
}

func strct(ns, name string) TypeDef {
	return TypeDef{Name: name, Namespace: ns, Kind: KindStruct}
}

func enum(ns, name string, values ...string) TypeDef {
	members := make([]Member, 0, len(values))
	for _, v := range values {
		members = append(members, Member{Name: v, Kind: MemberField, Type: name, Public: true, Static: true})
	}
	return TypeDef{Name: name, Namespace: ns, Kind: KindEnum, Members: members}
}

func attribute(ns, name string) TypeDef {
	return TypeDef{Name: name, Namespace: ns, Base: "System.Attribute", Kind: KindClass}
}

func systemCatalog() *Catalog {
	return &Catalog{
		Assembly: "mscorlib",
		Types: []TypeDef{
			class("System", "Object", ""),
			class("System", "Attribute", "System.Object"),
			class("System", "String", "System.Object"),
			strct("System", "Boolean"),
			strct("System", "Byte"),
			strct("System", "SByte"),
			strct("System", "Int16"),
			strct("System", "UInt16"),
			strct("System", "Int32"),
			strct("System", "UInt32"),
			strct("System", "Int64"),
			strct("System", "UInt64"),
			strct("System", "Single"),
			strct("System", "Double"),
			strct("System", "Char"),
			strct("System", "Decimal"),
		},
	}
}

func engineCatalog() *Catalog {
	return &Catalog{
		Assembly: "UnityEngine.CoreModule",
		Types: []TypeDef{
			class("UnityEngine", "Object", "System.Object",
				method("Instantiate", p("original", "UnityEngine.Object")),
				method("Destroy", p("obj", "UnityEngine.Object"))),
			class("UnityEngine", "GameObject", "UnityEngine.Object",
				method("GetComponent", p("type", "System.Type")),
				method("GetComponents", p("type", "System.Type")),
				method("SetActive", p("value", "System.Boolean"))),
			class("UnityEngine", "Component", "UnityEngine.Object",
				method("GetComponent", p("type", "System.Type")),
				method("GetComponents", p("type", "System.Type"))),
			class("UnityEngine", "Behaviour", "UnityEngine.Component"),
			class("UnityEngine", "MonoBehaviour", "UnityEngine.Behaviour"),
			class("UnityEngine", "Transform", "UnityEngine.Component"),
			strct("UnityEngine", "Vector2"),
			strct("UnityEngine", "Vector3"),
			strct("UnityEngine", "Vector4"),
			strct("UnityEngine", "Quaternion"),
			strct("UnityEngine", "Color"),
			strct("UnityEngine", "Color32"),
		},
	}
}

func sdkCatalog() *Catalog {
	sendParams := []Param{p("eventName", "System.String")}
	networkParams := []Param{p("target", "VRC.Udon.Common.Interfaces.NetworkEventTarget"), p("eventName", "System.String")}
	return &Catalog{
		Assembly: "VRC.Udon.Wrapper",
		Types: []TypeDef{
			class("UdonSharp", "UdonSharpBehaviour", "UnityEngine.MonoBehaviour",
				Member{Name: "SendCustomEvent", Kind: MemberMethod, Type: "void", Params: sendParams, Public: true},
				Member{Name: "SendCustomEventDelayedSeconds", Kind: MemberMethod, Type: "void", Params: append(append([]Param{}, sendParams...), p("delaySeconds", "System.Single")), Public: true},
				Member{Name: "SendCustomEventDelayedFrames", Kind: MemberMethod, Type: "void", Params: append(append([]Param{}, sendParams...), p("delayFrames", "System.Int32")), Public: true},
				Member{Name: "SendCustomNetworkEvent", Kind: MemberMethod, Type: "void", Params: networkParams, Public: true},
				method("RequestSerialization")),
			class("VRC.SDKBase", "VRCPlayerApi", "System.Object",
				method("IsOwner", p("obj", "UnityEngine.GameObject"))),
			class("VRC.SDKBase", "VRCUrl", "System.Object"),
			class("VRC.SDKBase", "Networking", "System.Object",
				method("SetOwner", p("player", "VRC.SDKBase.VRCPlayerApi"), p("obj", "UnityEngine.GameObject"))),
			attribute("UdonSharp", "UdonSyncedAttribute"),
			attribute("UdonSharp", "UdonBehaviourSyncModeAttribute"),
			attribute("UdonSharp", "FieldChangeCallbackAttribute"),
			attribute("VRC.SDK3.UdonNetworkCalling", "NetworkCallableAttribute"),
			enum("UdonSharp", "BehaviourSyncMode", "Any", "None", "Continuous", "Manual", "NoVariableSync"),
			enum("UdonSharp", "UdonSyncMode", "NotSynced", "None", "Linear", "Smooth"),
			enum("VRC.Udon.Common.Interfaces", "NetworkEventTarget", "All", "Owner", "Others", "Self"),
		},
	}
}
