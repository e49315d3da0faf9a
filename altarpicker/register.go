package altarpicker

import maa "github.com/MaaXYZ/maa-framework-go/v4"

// Register registers all custom action components for altarpicker package
func Register(svc *Service) {
	maa.AgentServerRegisterCustomAction("AltarInitAction", &AltarInitAction{svc: svc})
	maa.AgentServerRegisterCustomAction("AltarScanAction", &AltarScanAction{svc: svc})
	maa.AgentServerRegisterCustomAction("AltarDecideAction", &AltarDecideAction{svc: svc})
	maa.AgentServerRegisterCustomAction("AltarFinishAction", &AltarFinishAction{svc: svc})
}
