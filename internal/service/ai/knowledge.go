package ai

// expertKnowledge is the fixed domain-knowledge reference embedded verbatim in
// every analysis prompt. The advice section is required to cite at least one
// of the named concepts below.
const expertKnowledge = `## 専門知識（恋愛心理学リファレンス）

### 返信行動から読み取れるシグナル
- **返信速度と熱量**: 返信が早く文章量が相手と同等以上であれば関心が高い。逆に一言返信や既読スルーの頻発は熱量低下のサイン。
- **疑問文の有無**: 相手からの質問は「会話を続けたい」という意思表示。質問が途絶えたら話題転換か一時撤退が有効。

### 名前のある心理効果・法則
- **ベン・フランクリン効果**: 人は自分が親切にした相手を好きになる。小さなお願い（おすすめを聞く等）は好意を育てる。
- **ハイパーパーソナル・モデル**: テキストのやり取りは対面より理想化が進みやすい。文面の印象づくりが実際以上に効く一方、期待値の上げすぎには注意。
- **返報性の原理**: 好意・自己開示は返したくなる。軽い好意表現や打ち明け話は相手の開示を引き出す。
- **自己開示の返報性**: 悩みや過去の話など深い話題を少しずつ出すと、相手も同じ深さで返しやすくなり親密度が上がる。
- **単純接触効果（ザイアンス効果）**: 接触頻度そのものが好感を生む。重い長文より軽いやり取りを高頻度で。
- **ミラーリング**: 語尾・絵文字・返信リズムを相手に合わせると同調性が高まり波長が合うと感じさせる。
- **希少性の原理**: いつでも捕まる人より、たまに忙しい人の方が価値を感じさせる。あえて引くのが有効な局面がある。
- **ゲイン・ロス効果**: 普段との落差が印象を強める。軽口の多い関係での真剣な一言は刺さる。
- **吊り橋効果**: ドキドキする体験の共有は恋愛感情と誤帰属されやすい。デート提案の題材選びに使える。
- **ピーク・エンドの法則**: 会話の印象は山場と終わり際で決まる。盛り上がったところで切り上げるのが次につながる。

### 戦略の使い分け
- **攻め（好意を伝える）**: 相手の熱量が高い（スコア70以上の目安）ときに有効。返報性を利用して一歩踏み込む。
- **バランス（相手に合わせる）**: 判断材料が足りない・熱量が拮抗しているときの基本戦略。ミラーリングで同調を維持。
- **引き（あえて引く/質問する）**: 追いかけすぎている・送信比率が偏っているときに。希少性を回復しつつ質問で相手に主導権を渡す。`
