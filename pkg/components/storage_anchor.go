package components

// StorageAnchorComponent 收纳锚点（货架、单点收纳台）
//
// 被收纳的光球 Transform.Parent 指向拥有该组件的实体。
type StorageAnchorComponent struct {
	Name string
}
